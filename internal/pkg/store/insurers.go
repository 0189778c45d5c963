package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ougirez/premiums/internal/domain"
)

var insurerColumns = []string{"insurer_id", "name", "short_name", "is_active"}

func (s *store) GetInsurer(ctx context.Context, insurerID string) (*domain.Insurer, error) {
	query := builder().
		Select(insurerColumns...).
		From(tableInsurers).
		Where(squirrel.Eq{"insurer_id": insurerID})

	var insurer domain.Insurer
	if err := s.pool.Getx(ctx, &insurer, query); err != nil {
		return nil, fmt.Errorf("store.GetInsurer: %w", wrapErr(err))
	}

	return &insurer, nil
}

func (s *store) UpsertInsurers(ctx context.Context, insurers []domain.Insurer) error {
	if len(insurers) == 0 {
		return nil
	}

	query := builder().Insert(tableInsurers).Columns(insurerColumns...)
	for _, i := range insurers {
		query = query.Values(i.InsurerID, i.Name, i.ShortName, i.IsActive)
	}
	query = query.Suffix("ON CONFLICT (insurer_id) DO UPDATE SET " +
		"name = COALESCE(EXCLUDED.name, insurers.name), " +
		"short_name = COALESCE(EXCLUDED.short_name, insurers.short_name), " +
		"is_active = EXCLUDED.is_active")

	if _, err := s.pool.Execx(ctx, query); err != nil {
		return fmt.Errorf("store.UpsertInsurers: %w", err)
	}

	return nil
}
