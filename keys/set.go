package keys

import (
	"fmt"
	"sort"
	"strings"
)

// Set is an immutable collection of key material indexed by key id. It is
// built by the caller and handed to the verifier; it is safe for concurrent
// reads.
type Set struct {
	byID     map[string]Material
	fallback *Material
}

// NewSet builds a set. Keys with an empty id are allowed only when the set
// holds a single key, which then serves tokens that carry no "kid".
func NewSet(materials ...Material) (*Set, error) {
	if len(materials) == 0 {
		return nil, ErrEmptyKeySet
	}
	s := &Set{byID: make(map[string]Material, len(materials))}
	for _, m := range materials {
		if m.VerifyKey() == nil {
			return nil, fmt.Errorf("key %q: %w", m.ID, ErrNilPublicKey)
		}
		id := strings.TrimSpace(m.ID)
		if id == "" {
			if len(materials) > 1 {
				return nil, ErrAmbiguousDefault
			}
			cp := m
			s.fallback = &cp
			continue
		}
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKeyID, id)
		}
		s.byID[id] = m
	}
	if s.fallback == nil && len(s.byID) == 1 {
		for _, m := range s.byID {
			cp := m
			s.fallback = &cp
		}
	}
	return s, nil
}

// Lookup returns the key for kid. An empty kid resolves to the default key,
// which exists only for single-key sets.
func (s *Set) Lookup(kid string) (Material, bool) {
	if s == nil {
		return Material{}, false
	}
	if kid == "" {
		if s.fallback == nil {
			return Material{}, false
		}
		return *s.fallback, true
	}
	m, ok := s.byID[kid]
	return m, ok
}

// Len returns the number of keys in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	if len(s.byID) == 0 && s.fallback != nil {
		return 1
	}
	return len(s.byID)
}

// Materials returns every key in the set, ordered by id.
func (s *Set) Materials() []Material {
	if s == nil {
		return nil
	}
	if len(s.byID) == 0 && s.fallback != nil {
		return []Material{*s.fallback}
	}
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Material, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}
