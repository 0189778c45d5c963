package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ougirez/premiums/internal/domain"
)

func (s *store) GetLocationByZip(ctx context.Context, zip string) (*domain.Location, error) {
	query := builder().
		Select("zip_code", "canton", "city", "region_code").
		From(tableLocations).
		Where(squirrel.Eq{"zip_code": zip}).
		OrderBy("city ASC").
		Limit(1)

	var location domain.Location
	if err := s.pool.Getx(ctx, &location, query); err != nil {
		return nil, fmt.Errorf("store.GetLocationByZip: %w", wrapErr(err))
	}

	return &location, nil
}
