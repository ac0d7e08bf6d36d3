package params

import (
	"bytes"
	"errors"
	"math"
)

// NameLen is the fixed length of a parameter name.
const NameLen = 16

var (
	// ErrInvalidValue rejects NaN and infinite values.
	ErrInvalidValue = errors.New("invalid parameter value")
	// ErrUnknownIndex indicates an index outside the table.
	ErrUnknownIndex = errors.New("unknown parameter index")
)

// Name is a fixed-length parameter name. Names shorter than NameLen are
// NUL padded, a name of exactly NameLen bytes has no terminator.
type Name [NameLen]byte

// NameOf converts s into a Name, truncating at NameLen.
func NameOf(s string) (n Name) {
	copy(n[:], s)
	return
}

// String returns the name up to the first NUL.
func (n Name) String() string {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return string(n[:i])
	}
	return string(n[:])
}

// IsEmpty reports whether the name has no characters.
func (n Name) IsEmpty() bool {
	return n[0] == 0
}

// MatchName compares a stored name against a requested key byte by byte.
// The comparison accepts as soon as either operand reaches a NUL, so "ALT"
// matches "ALTX" in both directions.
func MatchName(stored, key Name) bool {
	for i := 0; i < NameLen; i++ {
		if stored[i] == 0 || key[i] == 0 {
			return true
		}
		if stored[i] != key[i] {
			return false
		}
	}
	return true
}

// Entry is a single named value.
type Entry struct {
	Name  Name
	Value float32
}

// Table is the fixed, ordered parameter table. The position of an entry is
// its index on the wire.
type Table struct {
	entries [Count]Entry
}

// NewTable creates a Table populated with default values.
func NewTable() *Table {
	t := &Table{}
	for i, d := range defaults {
		t.entries[i] = Entry{Name: NameOf(d.name), Value: d.value}
	}
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the entry at index i.
func (t *Table) At(i int) Entry {
	return t.entries[i]
}

// Get returns the value of a well-known parameter.
func (t *Table) Get(idx Index) float32 {
	return t.entries[idx].Value
}

// Set writes a well-known parameter without validation. It is used by
// onboard logic, never by remote requests.
func (t *Table) Set(idx Index, v float32) {
	t.entries[idx].Value = v
}

// Update writes a remotely requested value at index i. NaN and infinite
// values are rejected and leave the table unchanged. Writing the value
// already stored is a no-op and reports changed == false.
func (t *Table) Update(i int, v float32) (changed bool, err error) {
	if i < 0 || i >= len(t.entries) {
		return false, ErrUnknownIndex
	}
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false, ErrInvalidValue
	}
	if t.entries[i].Value == v {
		return false, nil
	}
	t.entries[i].Value = v
	return true, nil
}

// Each calls fn with the index of every entry matching key, in table
// order. An empty key matches nothing.
func (t *Table) Each(key Name, fn func(i int)) {
	if key.IsEmpty() {
		return
	}
	for i := range t.entries {
		if MatchName(t.entries[i].Name, key) {
			fn(i)
		}
	}
}

// IndexOf returns the index of the entry named exactly name, or -1.
func (t *Table) IndexOf(name string) int {
	for i := range t.entries {
		if t.entries[i].Name.String() == name {
			return i
		}
	}
	return -1
}
