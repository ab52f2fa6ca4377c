package climate

import (
	"sort"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// Tag is a device category a switch name can be configured into.
type Tag string

// Catalog tags.
const (
	TagHeating    Tag = "heating"
	TagCooling    Tag = "cooling"
	TagAuxHeating Tag = "aux_heating"
	TagHumidifier Tag = "humidifier"
)

// Catalog maps switch names to the tags configured for them.
// Matching is exact and case-sensitive; one name may carry several tags.
type Catalog struct {
	tags map[string]map[Tag]struct{}
}

// NewCatalog builds a catalog from tag → names lists.
func NewCatalog(names map[Tag][]string) *Catalog {
	c := &Catalog{tags: make(map[string]map[Tag]struct{})}
	for tag, list := range names {
		for _, name := range list {
			if c.tags[name] == nil {
				c.tags[name] = make(map[Tag]struct{})
			}
			c.tags[name][tag] = struct{}{}
		}
	}
	return c
}

// Has reports whether name is tagged with tag.
func (c *Catalog) Has(name string, tag Tag) bool {
	_, ok := c.tags[name][tag]
	return ok
}

// Tags returns the sorted tags for name.
func (c *Catalog) Tags(name string) []Tag {
	out := make([]Tag, 0, len(c.tags[name]))
	for tag := range c.tags[name] {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Matching returns the switches whose current name carries tag, in input order.
func (c *Catalog) Matching(switches []device.Switch, tag Tag) []device.Switch {
	var out []device.Switch
	for _, sw := range switches {
		if c.Has(sw.Name(), tag) {
			out = append(out, sw)
		}
	}
	return out
}

// Len returns the number of distinct configured names.
func (c *Catalog) Len() int {
	return len(c.tags)
}
