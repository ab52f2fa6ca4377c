// Package device provides the switch abstraction and discovery registry for
// Gray Logic Climate.
//
// A Switch is any network power switch identified by its hardware address.
// A Directory finds the switches currently on the network; the wemo bridge
// is the production implementation.
//
// # Registry
//
//	┌─────────────┐  Discover   ┌─────────────────────────────┐
//	│  Directory  │◀────────────│          Registry           │
//	│ (wemo SSDP) │             │  history: newest ... oldest │
//	└─────────────┘             │  Snapshot(): union by MAC   │
//	                            └─────────────────────────────┘
//
// Discovery runs on every Refresh until HistoryLength results have been
// collected, then only with probability RefreshProbability. A switch stays
// visible until it has been missing from every retained result.
//
// # Usage
//
//	reg := device.NewRegistry(wemoDirectory, device.RegistryConfig{
//	    HistoryLength:      10,
//	    RefreshProbability: 0.05,
//	})
//	reg.SetLogger(log)
//	reg.Refresh(ctx)
//	for _, sw := range reg.Snapshot() {
//	    fmt.Println(sw.Name(), sw.Address())
//	}
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Switch values themselves are
// driven only by the control loop.
package device
