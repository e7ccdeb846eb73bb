// Package models defines the core data structures for credential records
// and the ordered collection that forms the database.
package models

// Record is a single credential entry.
type Record struct {
	// Application is the name of the application, site or URL.
	Application string `json:"application"`
	// Username is the login, ID or email used for the application.
	Username string `json:"username"`
	// Password is the secret itself.
	Password string `json:"password"`
	// Notes holds free-form text such as recovery hints.
	Notes string `json:"notes"`
}

// NewRecord returns an empty Record.
func NewRecord() Record {
	return Record{}
}

// NewRecordWithFields returns a Record with all four fields set.
func NewRecordWithFields(application, username, password, notes string) Record {
	return Record{
		Application: application,
		Username:    username,
		Password:    password,
		Notes:       notes,
	}
}

// SetApplication replaces the application name.
func (r *Record) SetApplication(application string) { r.Application = application }

// SetUsername replaces the username.
func (r *Record) SetUsername(username string) { r.Username = username }

// SetPassword replaces the password.
func (r *Record) SetPassword(password string) { r.Password = password }

// SetNotes replaces the notes.
func (r *Record) SetNotes(notes string) { r.Notes = notes }
