package codec

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/parol/internal/models"
)

func TestRoundTrip(t *testing.T) {
	c := models.NewCollection()
	for i := 0; i < 10; i++ {
		c.Push(models.NewRecordWithFields(
			fmt.Sprintf("tox%d", i),
			"Ogromny",
			"superstrongpassword",
			fmt.Sprintf("%d", i*i*i),
		))
	}
	c.Push(models.NewRecordWithFields("уникод", "\"quoted\"", "tab\tnew\nline", "{}"))

	data, err := Encode(c)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, c.Len(), got.Len())
	for i := 0; i < c.Len(); i++ {
		want, _ := c.Get(i)
		have, ok := got.Get(i)
		require.True(t, ok)
		assert.Equal(t, want, have, "record %d", i)
	}
}

func TestEncode_Nil(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"parols":[],"len":0}`, string(data))
}

func TestDecode_IgnoresStaleLen(t *testing.T) {
	got, err := Decode([]byte(`{"parols":[{"application":"a","username":"b","password":"c","notes":"d"}],"len":42}`))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"not json", []byte("not-json")},
		{"truncated", []byte(`{"parols":[{"application":"a"`)},
		{"null", []byte("null")},
		{"array", []byte(`[]`)},
		{"wrong field type", []byte(`{"parols":"x"}`)},
		{"invalid utf-8", []byte{'{', 0xff, 0xfe, '}'}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}
