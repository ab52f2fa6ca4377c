package device

import (
	"context"
	"sort"
)

// Switch is a network power switch the climate loop can query and command.
//
// Identity is the hardware address (MAC). Two Switch values with the same
// Address are the same physical device even when their names differ or one
// of them came from an older discovery whose transport has gone stale.
//
// Implementations must be safe to call from one goroutine at a time; the
// control loop never issues concurrent commands to the same value.
type Switch interface {
	// Address returns the stable hardware address, e.g. "94:10:3E:12:34:56".
	Address() string

	// Name returns the user-assigned display name at discovery time.
	Name() string

	// IsOn reports whether the switch is currently delivering power.
	IsOn(ctx context.Context) (bool, error)

	// TurnOn commands the switch on.
	TurnOn(ctx context.Context) error

	// TurnOff commands the switch off.
	TurnOff(ctx context.Context) error
}

// Directory discovers the switches currently reachable on the network.
//
// A successful call returns every switch that answered, which may be none.
// An error means the discovery itself failed and says nothing about which
// switches exist.
type Directory interface {
	Discover(ctx context.Context) ([]Switch, error)
}

// Info is a plain description of a Switch for reports and the status API.
type Info struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Describe returns the Info for sw.
func Describe(sw Switch) Info {
	return Info{Address: sw.Address(), Name: sw.Name()}
}

// DescribeAll returns Info for every switch, sorted by name then address.
func DescribeAll(switches []Switch) []Info {
	infos := make([]Info, 0, len(switches))
	for _, sw := range switches {
		infos = append(infos, Describe(sw))
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].Address < infos[j].Address
	})
	return infos
}
