package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ougirez/premiums/internal/domain"
)

const upsertBatchSize = 100

var premiumColumns = []string{
	"year",
	"insurer_id",
	"canton",
	"region_code",
	"age_band",
	"franchise_chf",
	"accident_covered",
	"model_type",
	"monthly_premium_chf",
	"tariff_name",
}

const premiumConflict = "ON CONFLICT (year, insurer_id, canton, region_code, age_band, franchise_chf, accident_covered, model_type) " +
	"DO UPDATE SET monthly_premium_chf = EXCLUDED.monthly_premium_chf, tariff_name = EXCLUDED.tariff_name"

// PremiumFilter narrows premium reads. Zero values mean "any".
type PremiumFilter struct {
	Year            *int
	YearFrom        *int
	YearTo          *int
	Canton          string
	InsurerID       string
	AgeBand         string
	FranchiseCHF    *int
	AccidentCovered *bool
	ModelType       string
	Limit           uint64
}

func (f PremiumFilter) where() squirrel.Sqlizer {
	eq := squirrel.Eq{}
	if f.Year != nil {
		eq["p.year"] = *f.Year
	}
	if f.Canton != "" {
		eq["p.canton"] = f.Canton
	}
	if f.InsurerID != "" {
		eq["p.insurer_id"] = f.InsurerID
	}
	if f.AgeBand != "" {
		eq["p.age_band"] = f.AgeBand
	}
	if f.FranchiseCHF != nil {
		eq["p.franchise_chf"] = *f.FranchiseCHF
	}
	if f.AccidentCovered != nil {
		eq["p.accident_covered"] = *f.AccidentCovered
	}
	if f.ModelType != "" {
		eq["p.model_type"] = f.ModelType
	}

	and := squirrel.And{eq}
	if f.YearFrom != nil {
		and = append(and, squirrel.GtOrEq{"p.year": *f.YearFrom})
	}
	if f.YearTo != nil {
		and = append(and, squirrel.LtOrEq{"p.year": *f.YearTo})
	}
	return and
}

// ListPremiums returns matching premiums, cheapest first, with the insurer name
// joined in when the insurers table knows it.
func (s *store) ListPremiums(ctx context.Context, filter PremiumFilter) ([]*domain.Premium, error) {
	columns := make([]string, 0, len(premiumColumns)+2)
	columns = append(columns, "p.id")
	for _, c := range premiumColumns {
		columns = append(columns, "p."+c)
	}
	columns = append(columns, "i.name AS insurer_name")

	query := builder().
		Select(columns...).
		From(tablePremiums + " p").
		LeftJoin(tableInsurers + " i ON i.insurer_id = p.insurer_id").
		Where(filter.where()).
		OrderBy("p.monthly_premium_chf ASC", "p.id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var premiums []*domain.Premium
	if err := s.pool.Selectx(ctx, &premiums, query); err != nil {
		return nil, fmt.Errorf("store.ListPremiums: %w", err)
	}

	return premiums, nil
}

// ListYearPoints returns one point per matching row ordered by year.
func (s *store) ListYearPoints(ctx context.Context, filter PremiumFilter) ([]domain.YearPoint, error) {
	query := builder().
		Select("p.year", "p.monthly_premium_chf", "p.region_code").
		From(tablePremiums + " p").
		Where(filter.where()).
		OrderBy("p.year ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var points []domain.YearPoint
	if err := s.pool.Selectx(ctx, &points, query); err != nil {
		return nil, fmt.Errorf("store.ListYearPoints: %w", err)
	}

	return points, nil
}

func (s *store) CountPremiums(ctx context.Context) (int64, error) {
	query := builder().Select("COUNT(*)").From(tablePremiums)

	var count int64
	if err := s.pool.Getx(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("store.CountPremiums: %w", err)
	}

	return count, nil
}

// UpsertPremiums writes premiums in batches keyed on the composite key and returns
// the number of rows touched. Batches are independent: a failure leaves earlier
// batches applied.
func (s *store) UpsertPremiums(ctx context.Context, premiums []domain.Premium) (int64, error) {
	var total int64
	for start := 0; start < len(premiums); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(premiums) {
			end = len(premiums)
		}

		tag, err := s.pool.Execx(ctx, upsertPremiumsQuery(premiums[start:end]))
		if err != nil {
			return total, fmt.Errorf("store.UpsertPremiums: batch %d: %w", start/upsertBatchSize, err)
		}
		total += tag.RowsAffected()
	}

	return total, nil
}

func upsertPremiumsQuery(batch []domain.Premium) squirrel.InsertBuilder {
	query := builder().Insert(tablePremiums).Columns(premiumColumns...)
	for _, p := range batch {
		query = query.Values(
			p.Year,
			p.InsurerID,
			p.Canton,
			p.RegionCode,
			p.AgeBand,
			p.FranchiseCHF,
			p.AccidentCovered,
			p.ModelType,
			p.MonthlyPremiumCHF,
			p.TariffName,
		)
	}
	return query.Suffix(premiumConflict)
}
