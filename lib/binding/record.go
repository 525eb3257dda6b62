package binding

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is an ordered mapping from field name to payload. Iteration follows insertion order,
// re-putting an existing field keeps its position.
type Record struct {
	fields *orderedmap.OrderedMap[string, []byte]
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, []byte]()}
}

// NewRecordOf creates a record from the given fields, keeping their order
func NewRecordOf(pairs ...FieldValue) *Record {
	r := NewRecord()
	for _, p := range pairs {
		r.Put(p.Name, p.Value)
	}
	return r
}

// FieldValue is a single field of a record
type FieldValue struct {
	Name  string
	Value []byte
}

// Put sets the payload of a field and returns the record for chaining
func (r *Record) Put(name string, value []byte) *Record {
	r.fields.Set(name, value)
	return r
}

// Get returns the payload of a field
func (r *Record) Get(name string) ([]byte, bool) {
	return r.fields.Get(name)
}

// Len returns the number of fields. A nil record has no fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return r.fields.Len()
}

// First returns the first field in insertion order
func (r *Record) First() (FieldValue, bool) {
	if r.Len() == 0 {
		return FieldValue{}, false
	}
	p := r.fields.Oldest()
	return FieldValue{Name: p.Key, Value: p.Value}, true
}

// Names returns the field names in insertion order
func (r *Record) Names() []string {
	names := make([]string, 0, r.Len())
	if r.Len() == 0 {
		return names
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	return names
}

// Fields returns all fields in insertion order
func (r *Record) Fields() []FieldValue {
	fields := make([]FieldValue, 0, r.Len())
	if r.Len() == 0 {
		return fields
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		fields = append(fields, FieldValue{Name: p.Key, Value: p.Value})
	}
	return fields
}
