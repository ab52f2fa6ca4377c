package climate

import (
	"sort"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// Ledger records which switches automation turned on, per purpose.
//
// A switch is in a purpose set only while automation's latest on-command for
// that purpose stands: no automated turn-off and no manual override since.
// Only switches in the ledger are ever turned off automatically, so devices a
// person switched on by hand are left alone.
//
// The ledger is not safe for concurrent use; the controller owns it.
type Ledger struct {
	sets map[Purpose]map[string]device.Switch
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	l := &Ledger{sets: make(map[Purpose]map[string]device.Switch, len(Purposes))}
	for _, p := range Purposes {
		l.sets[p] = make(map[string]device.Switch)
	}
	return l
}

// Add records sw under purpose. Adding to heating removes the switch from
// cooling and vice versa.
func (l *Ledger) Add(purpose Purpose, sw device.Switch) {
	set, ok := l.sets[purpose]
	if !ok {
		return
	}
	set[sw.Address()] = sw
	if opp, ok := purpose.opposite(); ok {
		delete(l.sets[opp], sw.Address())
	}
}

// Remove drops address from purpose. It reports whether it was present.
func (l *Ledger) Remove(purpose Purpose, address string) bool {
	set := l.sets[purpose]
	if _, ok := set[address]; !ok {
		return false
	}
	delete(set, address)
	return true
}

// RemoveEverywhere drops address from every purpose and returns the
// purposes it was removed from.
func (l *Ledger) RemoveEverywhere(address string) []Purpose {
	var removed []Purpose
	for _, p := range Purposes {
		if l.Remove(p, address) {
			removed = append(removed, p)
		}
	}
	return removed
}

// Contains reports whether address is recorded under purpose.
func (l *Ledger) Contains(purpose Purpose, address string) bool {
	_, ok := l.sets[purpose][address]
	return ok
}

// Members returns the switches recorded under purpose, sorted by address.
func (l *Ledger) Members(purpose Purpose) []device.Switch {
	set := l.sets[purpose]
	out := make([]device.Switch, 0, len(set))
	for _, sw := range set {
		out = append(out, sw)
	}
	sortByAddress(out)
	return out
}

// All returns every tracked switch once, sorted by address.
func (l *Ledger) All() []device.Switch {
	seen := make(map[string]device.Switch)
	for _, p := range Purposes {
		for addr, sw := range l.sets[p] {
			if _, ok := seen[addr]; !ok {
				seen[addr] = sw
			}
		}
	}
	out := make([]device.Switch, 0, len(seen))
	for _, sw := range seen {
		out = append(out, sw)
	}
	sortByAddress(out)
	return out
}

// Rebind replaces the stored instance for sw's address in every purpose that
// tracks it, so later commands use the freshest discovered transport.
func (l *Ledger) Rebind(sw device.Switch) {
	for _, p := range Purposes {
		if _, ok := l.sets[p][sw.Address()]; ok {
			l.sets[p][sw.Address()] = sw
		}
	}
}

// Len returns the number of switches under purpose.
func (l *Ledger) Len(purpose Purpose) int {
	return len(l.sets[purpose])
}

// Describe returns a copy of the ledger suitable for reports.
func (l *Ledger) Describe() map[Purpose][]device.Info {
	out := make(map[Purpose][]device.Info, len(Purposes))
	for _, p := range Purposes {
		out[p] = device.DescribeAll(l.Members(p))
	}
	return out
}

func sortByAddress(switches []device.Switch) {
	sort.Slice(switches, func(i, j int) bool {
		return switches[i].Address() < switches[j].Address()
	})
}
