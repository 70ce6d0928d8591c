package timetable

import (
	"maps"
	"slices"

	"github.com/samber/lo"
)

// occurrences stores, per entity (group or teacher), the timeslots contributed by each placed session.
// Keeping occurrences tagged by session makes removal exact regardless of how many sessions share a timeslot
type occurrences map[uint64]map[uint64][]uint64

func newOccurrences(entities int) occurrences {
	index := make(occurrences, entities)
	for entity := range uint64(entities) {
		index[entity] = make(map[uint64][]uint64)
	}
	return index
}

func (index occurrences) add(entity, session uint64, timeslots []uint64) {
	if _, ok := index[entity]; !ok {
		index[entity] = make(map[uint64][]uint64)
	}
	index[entity][session] = slices.Clone(timeslots)
}

func (index occurrences) remove(entity, session uint64) {
	delete(index[entity], session)
}

// timeslots returns the sorted multiset of timeslots in which the entity is busy
func (index occurrences) timeslots(entity uint64) []uint64 {
	result := lo.Flatten(lo.Values(index[entity]))
	slices.Sort(result)
	return result
}

func (index occurrences) all() map[uint64][]uint64 {
	result := make(map[uint64][]uint64, len(index))
	for entity := range index {
		result[entity] = index.timeslots(entity)
	}
	return result
}

func (index occurrences) clone() occurrences {
	result := make(occurrences, len(index))
	for entity, sessions := range index {
		result[entity] = make(map[uint64][]uint64, len(sessions))
		for session, timeslots := range sessions {
			result[entity][session] = slices.Clone(timeslots)
		}
	}
	return result
}

// OrderKey identifies the sessions of one subject attended by one group
type OrderKey struct {
	Subject uint64
	Group   uint64
}

// orderIndex stores, per (subject, group) and session type, the start timeslot of every placed session
type orderIndex map[OrderKey]*[3]map[uint64]uint64

func (index orderIndex) entry(key OrderKey) *[3]map[uint64]uint64 {
	entry, ok := index[key]
	if !ok {
		entry = &[3]map[uint64]uint64{{}, {}, {}}
		index[key] = entry
	}
	return entry
}

func (index orderIndex) add(key OrderKey, sessionType int, session, start uint64) {
	index.entry(key)[sessionType][session] = start
}

func (index orderIndex) remove(key OrderKey, sessionType int, session uint64) {
	delete(index.entry(key)[sessionType], session)
}

// triple reports, for lectures, exercises and labs respectively, the earliest start or -1 when none is placed
func (index orderIndex) triple(key OrderKey) [3]int64 {
	triple := [3]int64{-1, -1, -1}
	entry, ok := index[key]
	if !ok {
		return triple
	}
	for sessionType, starts := range entry {
		if len(starts) > 0 {
			triple[sessionType] = int64(lo.Min(lo.Values(starts)))
		}
	}
	return triple
}

func (index orderIndex) clone() orderIndex {
	result := make(orderIndex, len(index))
	for key, entry := range index {
		result[key] = &[3]map[uint64]uint64{maps.Clone(entry[0]), maps.Clone(entry[1]), maps.Clone(entry[2])}
	}
	return result
}
