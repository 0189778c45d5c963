package store

import (
	"context"

	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	ListPremiums(ctx context.Context, filter PremiumFilter) ([]*domain.Premium, error)
	ListYearPoints(ctx context.Context, filter PremiumFilter) ([]domain.YearPoint, error)
	CountPremiums(ctx context.Context) (int64, error)
	UpsertPremiums(ctx context.Context, premiums []domain.Premium) (int64, error)

	GetInsurer(ctx context.Context, insurerID string) (*domain.Insurer, error)
	UpsertInsurers(ctx context.Context, insurers []domain.Insurer) error

	GetLocationByZip(ctx context.Context, zip string) (*domain.Location, error)

	InsertLead(ctx context.Context, lead *domain.Lead) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}

func (s *store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
