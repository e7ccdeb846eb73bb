// Package codec converts a Collection to and from its persisted JSON text.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/atinyakov/parol/internal/models"
)

var (
	// ErrMalformed is returned by Decode when the text is not a serialized Collection.
	ErrMalformed = errors.New("malformed collection")
	// ErrEncode is returned by Encode. It indicates a bug, not bad input.
	ErrEncode = errors.New("encode collection")
)

// Encode serializes c.
func Encode(c *models.Collection) ([]byte, error) {
	if c == nil {
		c = models.NewCollection()
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// Decode parses text produced by Encode.
func Decode(data []byte) (*models.Collection, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid utf-8", ErrMalformed)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	c := models.NewCollection()
	if err := json.Unmarshal(trimmed, c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return c, nil
}
