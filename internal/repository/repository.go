// Package repository defines the persistence interfaces the services
// depend on. Implementations live in subpackages.
package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it too, which keeps repository tests off a live database.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// CampaignFilter narrows campaign listings.
type CampaignFilter struct {
	Type     domain.CampaignType
	IsActive *bool
	Limit    int
	Offset   int
}

// CampaignRepository persists campaigns and their scoping associations.
type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	GetByCode(ctx context.Context, code string) (*domain.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]*domain.Campaign, int, error)
	// ListLive returns campaigns that are active and whose date window
	// contains now, ordered by min_purchase_amount desc then
	// discount_percent desc.
	ListLive(ctx context.Context, now time.Time) ([]*domain.Campaign, error)
	Update(ctx context.Context, c *domain.Campaign) error
	Delete(ctx context.Context, id string) error
	// CategoryNames resolves category IDs to display names, used when a
	// scoping failure has to name the eligible categories.
	CategoryNames(ctx context.Context, ids []string) ([]string, error)
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID string
	Status     domain.ProductStatus
	Limit      int
	Offset     int
}

// ProductRepository reads the product catalog.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}
