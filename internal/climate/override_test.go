package climate

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/device"
	"github.com/nerrad567/gray-logic-climate/internal/device/devicetest"
)

func newOverrideFixture() (*Ledger, *Actuator, *OverrideDetector) {
	ledger := NewLedger()
	act := NewActuator(ledger, 3, time.Second)
	return ledger, act, NewOverrideDetector(act)
}

func TestReconcile_ManualOffReleasesSwitch(t *testing.T) {
	ledger, act, det := newOverrideFixture()
	ctx := context.Background()
	heater := devicetest.NewSwitch("AA", "Heater")
	fan := devicetest.NewSwitch("BB", "Fan")
	act.Activate(ctx, heater, PurposeHeating)
	act.Activate(ctx, heater, PurposeHumidifying)
	act.Activate(ctx, fan, PurposeHeating)

	heater.SetOn(false) // turned off by hand

	outcomes := det.Reconcile(ctx, ledger, []device.Switch{heater, fan})

	if ledger.Tracked("AA") {
		t.Error("manually switched off heater still tracked")
	}
	if !ledger.Contains(PurposeHeating, "BB") {
		t.Error("fan still on and should stay tracked")
	}
	if got := countActions(outcomes, ActionOverride, "AA"); got != 2 {
		t.Errorf("override outcomes for AA = %d, want 2 (heating and humidifying)", got)
	}

	// A later sweep must leave the released heater alone.
	act.DeactivatePurpose(ctx, PurposeHeating, nil)
	if heater.TurnOffCalls != 0 {
		t.Errorf("heater TurnOffCalls = %d, want 0 after override", heater.TurnOffCalls)
	}
}

func TestReconcile_SecondPassUsesFreshInstance(t *testing.T) {
	tests := []struct {
		name        string
		freshOn     bool
		wantTracked bool
	}{
		{"fresh instance reports off", false, false},
		{"fresh instance reports on", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, act, det := newOverrideFixture()
			ctx := context.Background()
			stale := devicetest.NewSwitch("AA", "Heater")
			act.Activate(ctx, stale, PurposeHeating)
			stale.IsOnErr = errUnreachable

			fresh := devicetest.NewSwitch("AA", "Renamed Heater")
			fresh.SetOn(tt.freshOn)

			outcomes := det.Reconcile(ctx, ledger, []device.Switch{fresh})

			if got := ledger.Tracked("AA"); got != tt.wantTracked {
				t.Errorf("Tracked(AA) = %v, want %v", got, tt.wantTracked)
			}
			if fresh.IsOnCalls != 1 {
				t.Errorf("fresh IsOnCalls = %d, want 1", fresh.IsOnCalls)
			}
			if got := countActions(outcomes, ActionQuery, "AA"); got != 1 {
				t.Errorf("query failure outcomes = %d, want 1", got)
			}
			if tt.wantTracked {
				if m := ledger.Members(PurposeHeating); m[0].Name() != "Renamed Heater" {
					t.Errorf("ledger instance = %q, want rebound to fresh instance", m[0].Name())
				}
			}
		})
	}
}

func TestReconcile_UnreachableSwitchStaysTracked(t *testing.T) {
	ledger, act, det := newOverrideFixture()
	ctx := context.Background()
	sw := devicetest.NewSwitch("AA", "Heater")
	act.Activate(ctx, sw, PurposeCooling)
	sw.IsOnErr = errUnreachable

	// Not rediscovered: only the first pass runs.
	outcomes := det.Reconcile(ctx, ledger, nil)
	if !ledger.Contains(PurposeCooling, "AA") {
		t.Error("a failed query is not evidence of a manual override")
	}
	if len(outcomes) != 1 || outcomes[0].OK() {
		t.Errorf("outcomes = %+v, want one failed query", outcomes)
	}

	// Rediscovered with the same failing instance: both passes fail.
	outcomes = det.Reconcile(ctx, ledger, []device.Switch{sw})
	if !ledger.Contains(PurposeCooling, "AA") {
		t.Error("switch dropped after failed queries")
	}
	if got := countActions(outcomes, ActionQuery, "AA"); got != 2 {
		t.Errorf("query outcomes = %d, want 2", got)
	}
}

func TestReconcile_EmptyLedger(t *testing.T) {
	ledger, _, det := newOverrideFixture()
	sw := devicetest.NewSwitch("AA", "Heater")

	if out := det.Reconcile(context.Background(), ledger, []device.Switch{sw}); len(out) != 0 {
		t.Errorf("Reconcile() = %+v, want no outcomes", out)
	}
	if sw.IsOnCalls != 0 {
		t.Errorf("IsOnCalls = %d, want 0 for untracked switch", sw.IsOnCalls)
	}
}
