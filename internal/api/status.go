package api

import (
	"net/http"
	"sort"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// switchView is one known switch with the purposes automation holds it for.
type switchView struct {
	Address  string            `json:"address"`
	Name     string            `json:"name"`
	Purposes []climate.Purpose `json:"purposes"`
	Retries  int               `json:"retries,omitempty"`
}

// handleStatus returns the controller snapshot taken at the end of the last cycle.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

// handleListSwitches returns every known switch and its ledger purposes.
//
// Query parameters:
//   - purpose: only switches held for this purpose (heating, cooling, humidifying)
func (s *Server) handleListSwitches(w http.ResponseWriter, r *http.Request) {
	purpose := climate.Purpose(r.URL.Query().Get("purpose"))
	if purpose != "" && !validPurpose(purpose) {
		writeBadRequest(w, "purpose must be heating, cooling or humidifying")
		return
	}

	views := switchViews(s.controller.Snapshot())
	if purpose != "" {
		filtered := views[:0]
		for _, v := range views {
			for _, p := range v.Purposes {
				if p == purpose {
					filtered = append(filtered, v)
					break
				}
			}
		}
		views = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{"switches": views, "count": len(views)})
}

// switchViews merges known switches with ledger members. A ledger member that
// dropped out of discovery is still listed.
func switchViews(st climate.Snapshot) []switchView {
	byAddr := make(map[string]*switchView)
	add := func(info device.Info) *switchView {
		v, ok := byAddr[info.Address]
		if !ok {
			v = &switchView{Address: info.Address, Name: info.Name, Purposes: []climate.Purpose{}}
			byAddr[info.Address] = v
		}
		return v
	}

	for _, info := range st.KnownSwitches {
		add(info)
	}
	for _, p := range climate.Purposes {
		for _, info := range st.Ledger[p] {
			v := add(info)
			v.Purposes = append(v.Purposes, p)
		}
	}
	for addr, n := range st.RetryCounts {
		if v, ok := byAddr[addr]; ok {
			v.Retries = n
		}
	}

	out := make([]switchView, 0, len(byAddr))
	for _, v := range byAddr {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func validPurpose(p climate.Purpose) bool {
	for _, known := range climate.Purposes {
		if p == known {
			return true
		}
	}
	return false
}
