package models

import (
	"errors"
	"fmt"
	"slices"
)

// ErrOutOfBounds is matched by every IndexError.
var ErrOutOfBounds = errors.New("index out of bounds")

// IndexError reports an access past the end of a Collection.
type IndexError struct {
	// Len is the collection length at the time of the call.
	Len int
	// Index is the requested position.
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index out of bounds: the len is %d but the index is %d", e.Len, e.Index)
}

// Is makes errors.Is(err, ErrOutOfBounds) succeed for any IndexError.
func (e *IndexError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Collection is the ordered set of Records forming the database.
// Records leave a Collection only as copies.
type Collection struct {
	records []Record
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{records: []Record{}}
}

// NewCollectionFrom builds a Collection that takes ownership of records.
func NewCollectionFrom(records []Record) *Collection {
	if records == nil {
		records = []Record{}
	}
	return &Collection{records: records}
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.records)
}

// Get returns a copy of the record at index, or false if there is none.
func (c *Collection) Get(index int) (Record, bool) {
	if !c.inRange(index) {
		return Record{}, false
	}
	return c.records[index], true
}

// Set replaces the record at index.
func (c *Collection) Set(index int, r Record) error {
	if !c.inRange(index) {
		return &IndexError{Len: c.Len(), Index: index}
	}
	c.records[index] = r
	return nil
}

// Push appends r and returns the new length.
func (c *Collection) Push(r Record) int {
	c.records = append(c.records, r)
	return len(c.records)
}

// Remove deletes the record at index and returns it. Later records shift
// down by one.
func (c *Collection) Remove(index int) (Record, error) {
	if !c.inRange(index) {
		return Record{}, &IndexError{Len: c.Len(), Index: index}
	}
	r := c.records[index]
	c.records = slices.Delete(c.records, index, index+1)
	return r, nil
}

// Records returns a copy of all records in order.
func (c *Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Collection) inRange(index int) bool {
	return index >= 0 && index < len(c.records)
}
