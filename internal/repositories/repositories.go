package repositories

import (
	"context"
	"errors"
	"time"

	"eventhire_backend/pkg/contextkeys"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserAlreadyExists      = errors.New("user already exists")
	ErrRefreshTokenNotFound   = errors.New("refresh token not found")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrProfileAlreadyExists   = errors.New("profile already exists")
	ErrConversationNotFound   = errors.New("conversation not found")
	ErrConversationExists     = errors.New("conversation already exists")
	ErrMessageNotFound        = errors.New("message not found")
	ErrServiceRequestNotFound = errors.New("service request not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrPaymentAlreadyExists   = errors.New("payment already exists")

	// ErrStaleStatus is returned by conditional updates when the row no
	// longer has the expected status.
	ErrStaleStatus = errors.New("status changed concurrently")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Page     int
	PageSize int
}

func (p Page) normalized() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Limit() int {
	return p.normalized().PageSize
}

func (p Page) Offset() int {
	n := p.normalized()
	return (n.Page - 1) * n.PageSize
}

// window slices an already sorted result set for the in-memory store.
func window[T any](items []T, p Page) []T {
	off := p.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := off + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}

// Transactor runs fn atomically. Repositories called with the ctx handed
// to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(contextkeys.DBContextKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, contextkeys.DBContextKey, tx))
	})
}

// gormRepo resolves the connection for a call: the transaction bound to ctx
// if any, otherwise the pool.
type gormRepo struct {
	db *gorm.DB
}

func (r gormRepo) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(contextkeys.DBContextKey).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func duplicate(err, sentinel error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return sentinel
	}
	return err
}

func now() time.Time {
	return time.Now().UTC()
}
