package message

import "slices"

// Set is an ordered collection of distinct messages. Only literal duplicates
// collapse; nothing added is ever dropped.
type Set struct {
	items  []Message
	errors int
}

// Add inserts m and reports whether it was new. The error counter grows only
// for newly inserted Error messages.
func (s *Set) Add(m Message) bool {
	idx, found := slices.BinarySearchFunc(s.items, m, Compare)
	if found {
		return false
	}
	s.items = slices.Insert(s.items, idx, m)
	if m.Severity == Error {
		s.errors++
	}
	return true
}

// AddAll adds every message in ascending natural order, so counter growth does
// not depend on the order of ms. It returns the number of new messages.
func (s *Set) AddAll(ms []Message) int {
	sorted := slices.Clone(ms)
	slices.SortFunc(sorted, Compare)
	added := 0
	for _, m := range sorted {
		if s.Add(m) {
			added++
		}
	}
	return added
}

func (s *Set) Len() int { return len(s.items) }

func (s *Set) NumErrors() int { return s.errors }

// Count returns the number of messages with the given severity.
func (s *Set) Count(severity Severity) int {
	n := 0
	for _, m := range s.items {
		if m.Severity == severity {
			n++
		}
	}
	return n
}

// Messages returns a sorted copy of the set.
func (s *Set) Messages() []Message {
	return slices.Clone(s.items)
}

// Contains reports whether a message with the given code is present.
func (s *Set) Contains(code string) bool {
	for _, m := range s.items {
		if m.Code == code {
			return true
		}
	}
	return false
}

func (s *Set) Reset() {
	s.items = nil
	s.errors = 0
}
