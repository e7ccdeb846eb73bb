package models

import "encoding/json"

// collectionJSON is the persisted shape. Len is written for compatibility
// with older database files and ignored when reading.
type collectionJSON struct {
	Parols []Record `json:"parols"`
	Len    int      `json:"len"`
}

// MarshalJSON implements json.Marshaler.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(collectionJSON{Parols: c.records, Len: len(c.records)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var v collectionJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Parols == nil {
		v.Parols = []Record{}
	}
	c.records = v.Parols
	return nil
}
