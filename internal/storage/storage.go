// Package storage persists a Collection to a single encrypted file.
//
// Each save serializes the collection, seals it under a key derived from
// the master password with a fresh nonce, and atomically replaces the
// database file. The nonce travels in the file header, so a load always
// pairs a ciphertext with the nonce it was sealed under.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/atinyakov/parol/internal/codec"
	"github.com/atinyakov/parol/internal/crypto"
	"github.com/atinyakov/parol/internal/models"
)

var (
	// ErrNoDatabase is returned by Load when the database file does not exist.
	ErrNoDatabase = errors.New("no database yet")
	// ErrCannotOpen covers every decrypt or decode failure. Wrong password and
	// corrupted data are deliberately indistinguishable.
	ErrCannotOpen = errors.New("cannot open database: wrong password or corrupted data")
)

const defaultLockRetry = 50 * time.Millisecond

// Store reads and writes one database file.
type Store struct {
	path      string
	log       *zap.Logger
	lockRetry time.Duration

	// mu serializes callers inside this process; flock only guards
	// against other processes.
	mu   sync.Mutex
	lock *flock.Flock
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLockRetry sets how often a busy file lock is polled.
func WithLockRetry(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockRetry = d
		}
	}
}

// New returns a Store for the database at path, creating the parent
// directory if needed.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	s := &Store{
		path:      path,
		log:       zap.NewNop(),
		lockRetry: defaultLockRetry,
		lock:      flock.New(path + ".lock"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the database file is present.
func (s *Store) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat database: %w", err)
}

// Load reads and decrypts the database.
func (s *Store) Load(ctx context.Context, password string) (*models.Collection, error) {
	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.load(password)
}

// Save encrypts c and replaces the database file.
func (s *Store) Save(ctx context.Context, c *models.Collection, password string) error {
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()
	return s.save(c, password)
}

// Update loads the database, applies fn and saves the result while holding
// the exclusive lock. A missing database starts out empty. Nothing is
// written if fn fails.
func (s *Store) Update(ctx context.Context, password string, fn func(*models.Collection) error) error {
	if _, err := crypto.DeriveKey(password); err != nil {
		return err
	}
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load(password)
	switch {
	case errors.Is(err, ErrNoDatabase):
		s.log.Info("creating new database", zap.String("path", s.path))
		c = models.NewCollection()
	case err != nil:
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.save(c, password)
}

// Rekey re-encrypts the database under newPassword.
func (s *Store) Rekey(ctx context.Context, oldPassword, newPassword string) error {
	if _, err := crypto.DeriveKey(newPassword); err != nil {
		return err
	}
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load(oldPassword)
	if err != nil {
		return err
	}
	if err := s.save(c, newPassword); err != nil {
		return err
	}
	s.log.Info("master password changed", zap.String("path", s.path))
	return nil
}

func (s *Store) load(password string) (*models.Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoDatabase
		}
		return nil, fmt.Errorf("read database: %w", err)
	}

	key, err := crypto.DeriveKey(password)
	if err != nil {
		return nil, err
	}

	nonce, box, err := decodeFile(data)
	if err != nil {
		return nil, s.cannotOpen()
	}
	plain, err := crypto.Open(key, nonce, box)
	if err != nil {
		return nil, s.cannotOpen()
	}
	c, err := codec.Decode(plain)
	if err != nil {
		return nil, s.cannotOpen()
	}

	s.log.Debug("database loaded",
		zap.String("path", s.path),
		zap.Int("records", c.Len()),
		zap.Int("bytes", len(data)),
	)
	return c, nil
}

func (s *Store) save(c *models.Collection, password string) error {
	if c == nil {
		c = models.NewCollection()
	}
	plain, err := codec.Encode(c)
	if err != nil {
		return err
	}

	key, err := crypto.DeriveKey(password)
	if err != nil {
		return err
	}
	if crypto.IsWeak(password) {
		s.log.Warn("saving database with an empty master password", zap.String("path", s.path))
	}

	nonce, err := crypto.GenerateNonce()
	if err != nil {
		return err
	}
	data := encodeFile(nonce, crypto.Seal(key, nonce, plain))

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("save database: %w", err)
	}

	s.log.Debug("database saved",
		zap.String("path", s.path),
		zap.Int("records", c.Len()),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (s *Store) cannotOpen() error {
	s.log.Debug("database rejected", zap.String("path", s.path))
	return ErrCannotOpen
}

// acquire takes the in-process mutex and the file lock. The returned
// function releases both.
func (s *Store) acquire(ctx context.Context, exclusive bool) (func(), error) {
	s.mu.Lock()

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLockContext(ctx, s.lockRetry)
	} else {
		ok, err = s.lock.TryRLockContext(ctx, s.lockRetry)
	}
	if err != nil || !ok {
		s.mu.Unlock()
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, fmt.Errorf("lock database: %w", err)
	}

	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Error("failed to release database lock", zap.String("path", s.lock.Path()), zap.Error(err))
		}
		s.mu.Unlock()
	}, nil
}
