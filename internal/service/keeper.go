// Package service provides the record-management operations behind the
// command line, delegating persistence to a Repository.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/parol/internal/models"
	"github.com/atinyakov/parol/internal/storage"
)

var (
	// ErrNotFound is returned when an index does not name a record.
	ErrNotFound = errors.New("record not found")
	// ErrChanged is returned by Replace when the stored record no longer
	// matches the one the caller started from.
	ErrChanged = errors.New("record changed since it was read")
)

// Repository defines the persistence operations needed by the Keeper.
type Repository interface {
	// Load decrypts and returns the whole collection.
	Load(ctx context.Context, password string) (*models.Collection, error)
	// Update loads, applies fn and saves under one exclusive lock.
	Update(ctx context.Context, password string, fn func(*models.Collection) error) error
	// Rekey re-encrypts the database under a new password.
	Rekey(ctx context.Context, oldPassword, newPassword string) error
}

// Keeper implements record management on top of a Repository.
type Keeper struct {
	repo Repository
	log  *zap.Logger
}

// NewKeeper constructs a Keeper. A nil logger discards output.
func NewKeeper(repo Repository, log *zap.Logger) *Keeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Keeper{repo: repo, log: log}
}

// List returns all records in order. A database that does not exist yet is
// reported as empty.
func (k *Keeper) List(ctx context.Context, password string) ([]models.Record, error) {
	c, err := k.repo.Load(ctx, password)
	if errors.Is(err, storage.ErrNoDatabase) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return c.Records(), nil
}

// Get returns the record at index.
func (k *Keeper) Get(ctx context.Context, password string, index int) (models.Record, error) {
	c, err := k.repo.Load(ctx, password)
	if errors.Is(err, storage.ErrNoDatabase) {
		return models.Record{}, fmt.Errorf("%w: %d", ErrNotFound, index)
	}
	if err != nil {
		return models.Record{}, err
	}
	r, ok := c.Get(index)
	if !ok {
		return models.Record{}, fmt.Errorf("%w: %d", ErrNotFound, index)
	}
	return r, nil
}

// Add appends r and returns the new number of records.
func (k *Keeper) Add(ctx context.Context, password string, r models.Record) (int, error) {
	var n int
	err := k.repo.Update(ctx, password, func(c *models.Collection) error {
		n = c.Push(r)
		return nil
	})
	if err != nil {
		return 0, err
	}
	k.log.Info("record added", zap.String("application", r.Application), zap.Int("count", n))
	return n, nil
}

// Edit replaces the record at index.
func (k *Keeper) Edit(ctx context.Context, password string, index int, r models.Record) error {
	err := k.repo.Update(ctx, password, func(c *models.Collection) error {
		return notFound(c.Set(index, r))
	})
	if err != nil {
		return err
	}
	k.log.Info("record updated", zap.Int("index", index))
	return nil
}

// Replace swaps the record at index for r, but only if it still equals old.
// Read, check and write happen under one exclusive lock.
func (k *Keeper) Replace(ctx context.Context, password string, index int, old, r models.Record) error {
	err := k.repo.Update(ctx, password, func(c *models.Collection) error {
		current, ok := c.Get(index)
		if !ok {
			return fmt.Errorf("%w: %d", ErrNotFound, index)
		}
		if current != old {
			return fmt.Errorf("%w: %d", ErrChanged, index)
		}
		return c.Set(index, r)
	})
	if err != nil {
		return err
	}
	k.log.Info("record updated", zap.Int("index", index))
	return nil
}

// Remove deletes the record at index and returns it.
func (k *Keeper) Remove(ctx context.Context, password string, index int) (models.Record, error) {
	var removed models.Record
	err := k.repo.Update(ctx, password, func(c *models.Collection) error {
		var err error
		removed, err = c.Remove(index)
		return notFound(err)
	})
	if err != nil {
		return models.Record{}, err
	}
	k.log.Info("record removed", zap.Int("index", index))
	return removed, nil
}

// Import appends records in order and returns the new number of records.
func (k *Keeper) Import(ctx context.Context, password string, records []models.Record) (int, error) {
	var n int
	err := k.repo.Update(ctx, password, func(c *models.Collection) error {
		for _, r := range records {
			n = c.Push(r)
		}
		if len(records) == 0 {
			n = c.Len()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	k.log.Info("records imported", zap.Int("imported", len(records)), zap.Int("count", n))
	return n, nil
}

// ChangePassword re-encrypts the database under newPassword.
func (k *Keeper) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return k.repo.Rekey(ctx, oldPassword, newPassword)
}

func notFound(err error) error {
	if errors.Is(err, models.ErrOutOfBounds) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
