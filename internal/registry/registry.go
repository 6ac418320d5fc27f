package registry

import "fmt"

// Group is a named block of station identifiers at one location.
type Group struct {
	Name  string `yaml:"name" json:"name"`
	First int    `yaml:"first" json:"first"`
	Last  int    `yaml:"last" json:"last"`
}

// Registry is the static set of valid station identifiers, grouped by
// location. It is built once at startup and never mutated.
type Registry struct {
	groups   []Group
	stations []int
	members  map[int]string
}

// New validates the groups and builds the registry. Ranges must be non-empty
// and must not overlap.
func New(groups []Group) (*Registry, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("registry: no station groups configured")
	}

	members := make(map[int]string)
	var stations []int
	for _, g := range groups {
		if g.Name == "" {
			return nil, fmt.Errorf("registry: group with empty name")
		}
		if g.Last < g.First {
			return nil, fmt.Errorf("registry: group %q has empty range %d-%d", g.Name, g.First, g.Last)
		}
		for id := g.First; id <= g.Last; id++ {
			if other, ok := members[id]; ok {
				return nil, fmt.Errorf("registry: station %d in both %q and %q", id, other, g.Name)
			}
			members[id] = g.Name
			stations = append(stations, id)
		}
	}

	return &Registry{
		groups:   append([]Group(nil), groups...),
		stations: stations,
		members:  members,
	}, nil
}

// Default returns the stock two-location layout: Garage 1-6, Parking Lot 7-12.
func Default() *Registry {
	r, err := New([]Group{
		{Name: "Garage", First: 1, Last: 6},
		{Name: "Parking Lot", First: 7, Last: 12},
	})
	if err != nil {
		panic(err) // static layout, cannot fail
	}
	return r
}

// Contains reports whether the station id is part of the registry.
func (r *Registry) Contains(station int) bool {
	_, ok := r.members[station]
	return ok
}

// GroupOf returns the location group name for a station, or "" if unknown.
func (r *Registry) GroupOf(station int) string {
	return r.members[station]
}

// Stations returns all station ids in group declaration order.
func (r *Registry) Stations() []int {
	out := make([]int, len(r.stations))
	copy(out, r.stations)
	return out
}

// Groups returns the configured location groups.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groups))
	copy(out, r.groups)
	return out
}
