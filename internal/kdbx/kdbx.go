// Package kdbx exports a Collection to a KeePass (KDBX) database and
// imports one back, so records can move to and from other password
// managers.
package kdbx

import (
	"errors"
	"fmt"
	"io"
	"os"

	gokeepasslib "github.com/tobischo/gokeepasslib/v3"
	"github.com/tobischo/gokeepasslib/v3/wrappers"

	"github.com/atinyakov/parol/internal/models"
)

// GroupName is the group that holds exported records.
const GroupName = "parol"

// KeePass standard field keys.
const (
	keyTitle    = "Title"
	keyUserName = "UserName"
	keyPassword = "Password"
	keyNotes    = "Notes"
)

// Export writes c to w as a KDBX database protected by password. Record
// order is preserved.
func Export(w io.Writer, c *models.Collection, password string) error {
	if password == "" {
		return errors.New("kdbx password must not be empty")
	}

	group := gokeepasslib.NewGroup()
	group.Name = GroupName
	for _, r := range c.Records() {
		group.Entries = append(group.Entries, newEntry(r))
	}

	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	db.Content.Root = gokeepasslib.NewRootData()
	db.Content.Root.Groups = []gokeepasslib.Group{group}

	if err := db.LockProtectedEntries(); err != nil {
		return fmt.Errorf("lock protected entries: %w", err)
	}
	if err := gokeepasslib.NewEncoder(w).Encode(db); err != nil {
		return fmt.Errorf("encode kdbx: %w", err)
	}
	return nil
}

// Import reads every entry of a KDBX database, groups first-to-last and
// depth-first, into a new Collection.
func Import(r io.Reader, password string) (*models.Collection, error) {
	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	if err := gokeepasslib.NewDecoder(r).Decode(db); err != nil {
		return nil, fmt.Errorf("decode kdbx: %w", err)
	}
	if err := db.UnlockProtectedEntries(); err != nil {
		return nil, fmt.Errorf("unlock protected entries: %w", err)
	}

	c := models.NewCollection()
	if db.Content == nil || db.Content.Root == nil {
		return c, nil
	}
	collect(c, db.Content.Root.Groups)
	return c, nil
}

// ExportFile writes c to a new KDBX file at path.
func ExportFile(path string, c *models.Collection, password string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create kdbx file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close kdbx file: %w", cerr)
		}
	}()
	return Export(f, c, password)
}

// ImportFile reads the KDBX file at path.
func ImportFile(path string, password string) (*models.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open kdbx file: %w", err)
	}
	defer f.Close()
	return Import(f, password)
}

func newEntry(r models.Record) gokeepasslib.Entry {
	e := gokeepasslib.NewEntry()
	e.Values = append(e.Values,
		value(keyTitle, r.Application, false),
		value(keyUserName, r.Username, false),
		value(keyPassword, r.Password, true),
		value(keyNotes, r.Notes, false),
	)
	return e
}

func value(key, content string, protected bool) gokeepasslib.ValueData {
	v := gokeepasslib.V{Content: content}
	if protected {
		v.Protected = wrappers.NewBoolWrapper(true)
	}
	return gokeepasslib.ValueData{Key: key, Value: v}
}

func collect(c *models.Collection, groups []gokeepasslib.Group) {
	for _, g := range groups {
		for _, e := range g.Entries {
			c.Push(models.NewRecordWithFields(
				e.GetTitle(),
				e.GetContent(keyUserName),
				e.GetPassword(),
				e.GetContent(keyNotes),
			))
		}
		collect(c, g.Groups)
	}
}
