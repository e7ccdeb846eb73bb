package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord()
	assert.Equal(t, Record{}, r)
}

func TestNewRecordWithFields(t *testing.T) {
	r := NewRecordWithFields("twitter", "Ogromny", "super_strong_password", "parol rocks")

	assert.Equal(t, "twitter", r.Application)
	assert.Equal(t, "Ogromny", r.Username)
	assert.Equal(t, "super_strong_password", r.Password)
	assert.Equal(t, "parol rocks", r.Notes)
}

func TestRecordSetters(t *testing.T) {
	var r Record
	r.SetApplication("twitter")
	r.SetUsername("Ogromny")
	r.SetPassword("super_strong_password")
	r.SetNotes("Some notes...")

	assert.Equal(t, NewRecordWithFields("twitter", "Ogromny", "super_strong_password", "Some notes..."), r)
}
