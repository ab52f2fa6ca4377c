package climate

import (
	"context"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// StateReader queries a switch's live state.
type StateReader interface {
	IsOn(ctx context.Context, sw device.Switch) (bool, error)
}

// OverrideDetector finds ledger switches a person has turned off by hand and
// stops tracking them, so automation never fights a manual decision.
type OverrideDetector struct {
	reader StateReader
	logger Logger
}

// NewOverrideDetector creates a detector querying through reader.
func NewOverrideDetector(reader StateReader) *OverrideDetector {
	return &OverrideDetector{reader: reader, logger: noopLogger{}}
}

// SetLogger sets the logger for the detector.
func (d *OverrideDetector) SetLogger(logger Logger) {
	d.logger = logger
}

// Reconcile removes manually switched-off devices from every ledger purpose.
//
// Pass one queries the ledger's own instance of every tracked switch. For
// switches whose query failed (a stale transport, or a device renamed and
// rediscovered), pass two queries the freshest instance in known with the
// same address. A switch reported off by either pass is removed from every
// purpose. Surviving entries are rebound to the instance in known.
//
// Query failures are returned as outcomes and never stop the reconciliation.
func (d *OverrideDetector) Reconcile(ctx context.Context, ledger *Ledger, known []device.Switch) []Outcome {
	var outcomes []Outcome
	overridden := make(map[string]device.Switch)
	var unanswered []device.Switch

	for _, sw := range ledger.All() {
		on, err := d.reader.IsOn(ctx, sw)
		if err != nil {
			d.logger.Warn("switch state query failed", "switch", sw.Name(), "address", sw.Address(), "error", err)
			outcomes = append(outcomes, Outcome{Action: ActionQuery, Address: sw.Address(), Name: sw.Name(), Err: err})
			unanswered = append(unanswered, sw)
			continue
		}
		if !on {
			overridden[sw.Address()] = sw
		}
	}

	if len(unanswered) > 0 {
		byAddress := make(map[string]device.Switch, len(known))
		for _, sw := range known {
			byAddress[sw.Address()] = sw
		}
		for _, stale := range unanswered {
			fresh, ok := byAddress[stale.Address()]
			if !ok {
				continue
			}
			on, err := d.reader.IsOn(ctx, fresh)
			if err != nil {
				d.logger.Warn("switch state query failed", "switch", fresh.Name(), "address", fresh.Address(), "error", err)
				outcomes = append(outcomes, Outcome{Action: ActionQuery, Address: fresh.Address(), Name: fresh.Name(), Err: err})
				continue
			}
			if !on {
				overridden[fresh.Address()] = fresh
			}
		}
	}

	for addr, sw := range overridden {
		for _, p := range ledger.RemoveEverywhere(addr) {
			d.logger.Info("switch turned off manually, releasing control", "switch", sw.Name(), "address", addr, "purpose", p)
			outcomes = append(outcomes, Outcome{Action: ActionOverride, Address: addr, Name: sw.Name(), Purpose: p})
		}
	}

	for _, sw := range known {
		ledger.Rebind(sw)
	}

	return outcomes
}
