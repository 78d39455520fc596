package state

import "sort"

// Current returns the entity's latest version.
func (s *State) Current(entityID string) (Version, error) {
	e, ok := s.entities[entityID]
	if !ok {
		return Version{}, unknownEntityErr(0, entityID)
	}
	return e.Versions[len(e.Versions)-1], nil
}

// AsOf returns the version current as of time t: the last version with
// ValidFrom <= t, found by binary search over the version sequence.
// A t earlier than the first version is a typed NO_VERSION_AT_TIME error.
func (s *State) AsOf(entityID string, t int64) (Version, error) {
	e, ok := s.entities[entityID]
	if !ok {
		return Version{}, unknownEntityErr(0, entityID)
	}

	// First index with ValidFrom > t; the answer is the version before it.
	i := sort.Search(len(e.Versions), func(i int) bool {
		return e.Versions[i].ValidFrom > t
	})
	if i == 0 {
		return Version{}, &ApplyError{
			Code:     ErrCodeNoVersionAtTime,
			EntityID: entityID,
			Message:  "no version at or before the requested time",
		}
	}
	return e.Versions[i-1], nil
}

// History returns the entity's full version sequence, ordered by validity
// start. The returned slice is a copy; callers may retain it.
func (s *State) History(entityID string) ([]Version, error) {
	e, ok := s.entities[entityID]
	if !ok {
		return nil, unknownEntityErr(0, entityID)
	}
	out := make([]Version, len(e.Versions))
	copy(out, e.Versions)
	return out, nil
}
