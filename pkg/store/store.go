package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"libraryapp/pkg/models"
)

// Store persists library records through gorm.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

type txKey struct{}

// WithTx runs fn inside one transaction. The transaction travels in the
// context handed to fn; nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// forUpdate locks the selected rows until the transaction ends. The sqlite
// dialect drops the clause, which is fine with its single connection.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, models.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// first loads a single record matching query, or models.ErrNotFound.
func first[T any](db *gorm.DB, op string, query string, args ...interface{}) (T, error) {
	var rec T
	err := db.Where(query, args...).First(&rec).Error
	return rec, translate(op, err)
}

// find loads at most one record matching query; nil when none matches.
func find[T any](db *gorm.DB, op string, query string, args ...interface{}) (*T, error) {
	var recs []T
	if err := db.Where(query, args...).Order("id ASC").Limit(1).Find(&recs).Error; err != nil {
		return nil, translate(op, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}
