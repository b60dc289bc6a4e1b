package merge

import (
	"slices"

	"retail-dashboard-api/internal/models"
)

// Selection is a set of order ids toggled on and off independently.
// The order in which ids were toggled is not kept.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection(ids ...string) *Selection {
	s := &Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Toggle flips membership of id and reports whether it is now selected
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids sorted
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Pick returns the selected orders in the order they appear in source
func (s *Selection) Pick(source []models.Order) []models.Order {
	var picked []models.Order
	for _, o := range source {
		if s.Contains(o.ID) {
			picked = append(picked, o)
		}
	}
	return picked
}
