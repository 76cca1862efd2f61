// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Counter protocol errors. A conditional increment must hit exactly one live
// row; zero means the id does not resolve (or the row is soft-deleted), more
// than one means the unique keys are broken and we refuse to continue.
var (
	ErrRowNotFound          = errors.New("no row matched the conditional update")
	ErrMultipleRowsAffected = errors.New("conditional update affected more than one row")
)

// BaseRepository provides common repository functionality with transaction support
type BaseRepository[T any, F any] struct {
	DB *gorm.DB
}

// NewBaseRepository creates a new base repository instance
func NewBaseRepository[T any, F any](db *gorm.DB) *BaseRepository[T, F] {
	return &BaseRepository[T, F]{
		DB: db,
	}
}

// getDB returns the appropriate database connection (with or without transaction)
func (r *BaseRepository[T, F]) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

// getDBForWrite returns database connection with transaction for write operations
func (r *BaseRepository[T, F]) getDBForWrite(ctx context.Context) (*gorm.DB, bool, error) {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx, false, nil // Transaction already exists, don't commit
	}

	// Start new transaction for write operation
	tx := r.DB.Begin()
	if tx.Error != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return tx, true, nil // New transaction, should commit
}

// Save inserts a new entity
func (r *BaseRepository[T, F]) Save(ctx context.Context, entity *T) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Create(entity).Error
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}

	return nil
}

// SaveBatch inserts multiple entities in a single transaction
func (r *BaseRepository[T, F]) SaveBatch(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.CreateInBatches(entities, 100).Error // Batch size of 100
	if err != nil {
		return fmt.Errorf("failed to save batch entities: %w", err)
	}

	return nil
}

// incrementColumn adds 1 to a single counter column of the row matching the
// given primary key, as one conditional UPDATE. Soft-deleted rows are excluded
// by the default scope, so a removed row reports ErrRowNotFound.
func (r *BaseRepository[T, F]) incrementColumn(ctx context.Context, pkColumn string, pk any, counter string) error {
	db := r.getDB(ctx)

	var entity T
	res := db.Model(&entity).
		Where(fmt.Sprintf("%s = ?", pkColumn), pk).
		UpdateColumn(counter, gorm.Expr(fmt.Sprintf("%s + 1", counter)))
	if res.Error != nil {
		return fmt.Errorf("failed to increment %s: %w", counter, res.Error)
	}
	switch {
	case res.RowsAffected == 0:
		return ErrRowNotFound
	case res.RowsAffected > 1:
		return fmt.Errorf("%w: %s on %s=%v hit %d rows", ErrMultipleRowsAffected, counter, pkColumn, pk, res.RowsAffected)
	}
	return nil
}

// WithTransaction runs fn inside one database transaction. The transaction is
// placed in the context so repository calls made from fn join it; fn returning
// an error (or panicking) rolls everything back.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(context.Context) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", r)
		}
	}()

	ctx = context.WithValue(ctx, TxContextKey, tx)

	if err := fn(ctx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
