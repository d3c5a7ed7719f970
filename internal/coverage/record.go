package coverage

import (
	"encoding/json"
	"sort"
)

// Record counts how many items (lines, functions or branches) were found and
// how many of them were hit.
type Record struct {
	Total int `json:"total"`
	Hit   int `json:"hit"`
	Miss  int `json:"miss"`
}

// NewRecord creates a Record whose Miss is Total - Hit. Miss is negative when
// more hits than items were reported; the value is kept as is.
func NewRecord(total, hit int) Record {
	return Record{Total: total, Hit: hit, Miss: total - hit}
}

// NewRecordWithMiss creates a Record with an explicit miss count.
func NewRecordWithMiss(total, hit, miss int) Record {
	return Record{Total: total, Hit: hit, Miss: miss}
}

// Combine sums both records component by component.
func (r Record) Combine(other Record) Record {
	return Record{
		Total: r.Total + other.Total,
		Hit:   r.Hit + other.Hit,
		Miss:  r.Miss + other.Miss,
	}
}

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	return r
}

// Percent returns the hit ratio in percent, or 0 when nothing was found.
func (r Record) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Hit) * 100 / float64(r.Total)
}

// DetailedRecord is a Record that also keeps the details it was built from.
// Details are keyed by their own DetailKey; adding a detail whose key is
// already present combines the two.
// Branch blocks of one line and functions sharing a line stay distinct.
type DetailedRecord[T Detail[T]] struct {
	Record
	details map[DetailKey]T
}

// NewDetailedRecord creates a DetailedRecord with Miss computed as
// Total - Hit. The initial details are cloned.
func NewDetailedRecord[T Detail[T]](total, hit int, details ...T) DetailedRecord[T] {
	return NewDetailedRecordWithMiss(total, hit, total-hit, details...)
}

// NewDetailedRecordWithMiss creates a DetailedRecord with an explicit miss
// count. The initial details are cloned.
func NewDetailedRecordWithMiss[T Detail[T]](total, hit, miss int, details ...T) DetailedRecord[T] {
	r := DetailedRecord[T]{
		Record:  NewRecordWithMiss(total, hit, miss),
		details: make(map[DetailKey]T, len(details)),
	}
	for _, d := range details {
		r.AddDetail(d)
	}
	return r
}

// AddDetail merges d into the detail stored under the same key, or stores a
// clone of d when the key is new.
func (r *DetailedRecord[T]) AddDetail(d T) {
	if r.details == nil {
		r.details = make(map[DetailKey]T)
	}
	key := d.Key()
	if existing, ok := r.details[key]; ok {
		r.details[key] = existing.Combine(d)
		return
	}
	r.details[key] = d.Clone()
}

// Detail returns a copy of the detail stored under key.
func (r DetailedRecord[T]) Detail(key DetailKey) (T, bool) {
	d, ok := r.details[key]
	if !ok {
		return d, false
	}
	return d.Clone(), true
}

// Details returns copies of all details ordered by line, block and name.
func (r DetailedRecord[T]) Details() []T {
	keys := make([]DetailKey, 0, len(r.details))
	for k := range r.details {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.details[k].Clone())
	}
	return out
}

// Len returns the number of details.
func (r DetailedRecord[T]) Len() int {
	return len(r.details)
}

// Combine sums the counts of both records and merges their details.
func (r DetailedRecord[T]) Combine(other DetailedRecord[T]) DetailedRecord[T] {
	combined := r.Clone()
	combined.Record = r.Record.Combine(other.Record)
	for _, d := range other.details {
		combined.AddDetail(d)
	}
	return combined
}

// Clone returns a deep copy of the record and its details.
func (r DetailedRecord[T]) Clone() DetailedRecord[T] {
	c := DetailedRecord[T]{
		Record:  r.Record,
		details: make(map[DetailKey]T, len(r.details)),
	}
	for k, d := range r.details {
		c.details[k] = d.Clone()
	}
	return c
}

// Plain drops the details and returns the counts only.
func (r DetailedRecord[T]) Plain() Record {
	return r.Record
}

// MarshalJSON encodes the counts along with the ordered details.
func (r DetailedRecord[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Record
		Details []T `json:"details"`
	}{
		Record:  r.Record,
		Details: r.Details(),
	})
}
