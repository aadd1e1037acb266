package viewer

import (
	"sort"
	"sync"
	"time"

	"vehicle-visualizer/protocol"
)

// Store keeps one Marker per entity id. Markers are created on first
// sight and only mutated afterwards.
type Store struct {
	view MapView
	now  func() time.Time

	mu      sync.Mutex
	markers map[string]*Marker
}

// NewStore returns an empty store drawing on view. view may be nil, in
// which case the store only tracks state.
func NewStore(view MapView) *Store {
	return &Store{
		view:    view,
		now:     time.Now,
		markers: make(map[string]*Marker),
	}
}

// Apply records u and reports whether a new marker was created.
func (s *Store) Apply(u protocol.Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := Position{Lat: u.Lat, Lon: u.Lon}
	vs := DeriveVisualState(u.ID, u.Heading)
	ts := s.now().UnixMilli()

	m, ok := s.markers[u.ID]
	if !ok {
		m = &Marker{
			ID:       u.ID,
			Position: pos,
			Heading:  u.Heading,
			Icon:     vs.Icon,
			Label:    vs.Label,
			Updated:  ts,
		}
		if s.view != nil {
			m.handle = s.view.CreateMarker(pos, vs.Icon)
			s.view.SetRotation(m.handle, u.Heading)
			s.view.SetLabel(m.handle, vs.Label)
		}
		s.markers[u.ID] = m
		return true
	}

	iconChanged := m.Icon != vs.Icon
	m.Position = pos
	m.Heading = u.Heading
	m.Icon = vs.Icon
	m.Label = vs.Label
	m.Updated = ts

	if s.view != nil {
		s.view.SetPosition(m.handle, pos)
		s.view.SetRotation(m.handle, u.Heading)
		if iconChanged {
			s.view.SetIcon(m.handle, vs.Icon)
		}
		s.view.SetLabel(m.handle, vs.Label)
	}
	return false
}

// Len returns the number of distinct entities seen.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// Get returns a copy of the marker for id.
func (s *Store) Get(id string) (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[id]
	if !ok {
		return Marker{}, false
	}
	return *m, true
}

// Snapshot returns copies of all markers ordered by id.
func (s *Store) Snapshot() []Marker {
	s.mu.Lock()
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, *m)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
