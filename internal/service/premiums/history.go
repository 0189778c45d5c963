package premiums

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ougirez/premiums/internal/aggregate"
	"github.com/ougirez/premiums/internal/chart"
	"github.com/ougirez/premiums/internal/chartsig"
	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/normalize"
	"github.com/ougirez/premiums/internal/params"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/store"
)

const (
	defaultCanton       = "ZH"
	defaultRankingYears = "2020,2023,2025"
	defaultRankingTop   = 5
	compareYearsLimit   = 10

	// share of analysed years an insurer must rank in to count as consistent
	consistencyShare = 0.6
)

// resolveInsurer accepts an id, an alias or part of a name.
func resolveInsurer(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", constants.ErrInvalidInsurer
	}

	id := normalize.InsurerID(raw)
	if isDigits(id) {
		return id, nil
	}
	if id, ok := normalize.FindInsurerByName(raw); ok {
		return id, nil
	}
	return "", constants.ErrInvalidInsurer.WithMessage(fmt.Sprintf("Insurer '%s' is unknown", raw))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Timeline follows one insurer's premium for a profile across the historical years.
func (s *Service) Timeline(ctx context.Context, req dto.TimelineRequest) (*dto.TimelineResponse, error) {
	insurerID, err := resolveInsurer(req.InsurerID)
	if err != nil {
		return nil, err
	}
	c, err := params.Resolve(params.Query{
		Canton:          req.Canton,
		Profile:         req.Profile,
		Franchise:       req.FranchiseCHF,
		AccidentCovered: req.AccidentCovered,
		ModelType:       req.ModelType,
	}, params.Defaults{Profile: params.DefaultProfile, ModelType: domain.ModelStandard})
	if err != nil {
		return nil, err
	}
	start, end, err := params.YearRange(req.StartYear, req.EndYear, historyStart, historyEnd)
	if err != nil {
		return nil, err
	}

	points, err := s.store.ListYearPoints(ctx, store.PremiumFilter{
		YearFrom:        &start,
		YearTo:          &end,
		Canton:          c.Canton,
		InsurerID:       insurerID,
		AgeBand:         c.AgeBand,
		FranchiseCHF:    &c.FranchiseCHF,
		AccidentCovered: &c.AccidentCovered,
		ModelType:       c.ModelType,
	})
	if err != nil {
		return nil, queryErr(ctx, "Timeline", err)
	}
	if len(points) == 0 {
		return nil, constants.ErrNoResults
	}

	series := aggregate.Series(aggregate.YearlyAverages(points))
	name := s.lookupInsurerName(ctx, insurerID)

	var chartURL *string
	if len(series) > 1 {
		u := s.chartURL(ctx, chart.Timeline{
			InsurerName: name,
			Series:      []chart.Series{{Region: c.Canton, Points: series}},
		}, chartsig.Params{
			Canton:          c.Canton,
			InsurerID:       insurerID,
			InsurerName:     name,
			Profile:         c.Profile.Name,
			ModelType:       c.ModelType,
			FranchiseCHF:    params.Ptr(c.FranchiseCHF),
			AccidentCovered: params.Ptr(c.AccidentCovered),
			StartYear:       params.Ptr(start),
			EndYear:         params.Ptr(end),
		})
		chartURL = &u
	}

	return &dto.TimelineResponse{
		Success:    true,
		ChartURL:   chartURL,
		Insurer:    dto.InsurerRef{ID: insurerID, Name: name},
		Canton:     c.Canton,
		Profile:    c.Profile.Name,
		Period:     period(start, end),
		Timeline:   series,
		Statistics: aggregate.Changes(series),
		Trend:      aggregate.LinearTrend(series),
		Source:     domain.HistoricalSource,
	}, nil
}

// Inflation reports the year over year change of the average premium in a canton.
func (s *Service) Inflation(ctx context.Context, req dto.InflationRequest) (*dto.InflationResponse, error) {
	c, err := params.Resolve(params.Query{
		Canton:          or(req.Canton, defaultCanton),
		AgeBand:         req.AgeBand,
		Franchise:       req.FranchiseCHF,
		AccidentCovered: req.AccidentCovered,
		ModelType:       req.ModelType,
	}, params.Defaults{
		AgeBand:         domain.AgeBandAdult,
		Franchise:       params.Ptr(2500),
		AccidentCovered: params.Ptr(true),
		ModelType:       domain.ModelStandard,
	})
	if err != nil {
		return nil, err
	}
	start, end, err := params.YearRange(req.StartYear, req.EndYear, historyStart, historyEnd)
	if err != nil {
		return nil, err
	}

	points, err := s.store.ListYearPoints(ctx, store.PremiumFilter{
		YearFrom:        &start,
		YearTo:          &end,
		Canton:          c.Canton,
		AgeBand:         c.AgeBand,
		FranchiseCHF:    &c.FranchiseCHF,
		AccidentCovered: &c.AccidentCovered,
		ModelType:       c.ModelType,
	})
	if err != nil {
		return nil, queryErr(ctx, "Inflation", err)
	}
	if len(points) == 0 {
		return nil, constants.ErrNoResults.WithMessage("No data found for the specified criteria")
	}

	report := aggregate.Inflation(aggregate.YearlyAverages(points))

	var chartURL *string
	if len(report.Years) > 1 {
		u := s.chartURL(ctx, chart.Inflation{Canton: c.Canton, Years: report.Years}, chartsig.Params{
			Canton:          c.Canton,
			AgeBand:         c.AgeBand,
			ModelType:       c.ModelType,
			FranchiseCHF:    params.Ptr(c.FranchiseCHF),
			AccidentCovered: params.Ptr(c.AccidentCovered),
			StartYear:       params.Ptr(start),
			EndYear:         params.Ptr(end),
		})
		chartURL = &u
	}

	return &dto.InflationResponse{
		Success:  true,
		ChartURL: chartURL,
		Canton:   c.Canton,
		Profile: dto.InflationProfile{
			AgeBand:         c.AgeBand,
			FranchiseCHF:    c.FranchiseCHF,
			ModelType:       c.ModelType,
			AccidentCovered: c.AccidentCovered,
		},
		Period: period(start, end),
		Statistics: dto.InflationStatistics{
			AvgYearlyInflation: report.AvgYearlyInflation,
			TotalInflation:     report.TotalInflation,
			YearsAnalyzed:      len(report.Years),
		},
		YearlyData: report.Years,
		Source:     domain.HistoricalSource,
	}, nil
}

// listYears runs one premium query per year concurrently and returns the rows
// keyed by year.
func (s *Service) listYears(ctx context.Context, years []int, base store.PremiumFilter) (map[int][]*domain.Premium, error) {
	rows := make([][]*domain.Premium, len(years))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(lookupLimit)
	for i, year := range years {
		i, year := i, year
		eg.Go(func() error {
			filter := base
			filter.Year = &year
			premiums, err := s.store.ListPremiums(egCtx, filter)
			if err != nil {
				return fmt.Errorf("year %d: %w", year, err)
			}
			rows[i] = premiums
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	byYear := make(map[int][]*domain.Premium, len(years))
	for i, year := range years {
		byYear[year] = rows[i]
	}
	return byYear, nil
}

// CompareYears matches the cheapest offers of two years by insurer and model and
// reports how much each changed. Offers missing in the first year are dropped.
func (s *Service) CompareYears(ctx context.Context, req dto.CompareYearsRequest) (*dto.CompareYearsResponse, error) {
	year1, err := params.Year(req.Year1, 2020)
	if err != nil {
		return nil, err
	}
	year2, err := params.Year(req.Year2, 2025)
	if err != nil {
		return nil, err
	}
	canton, err := params.Canton(or(req.Canton, defaultCanton))
	if err != nil {
		return nil, err
	}
	profile, err := params.LookupProfile(or(req.Profile, params.DefaultProfile))
	if err != nil {
		return nil, err
	}
	limit := params.Limit(req.Limit, compareYearsLimit, params.MaxLimit)

	byYear, err := s.listYears(ctx, []int{year1, year2}, store.PremiumFilter{
		Canton:          canton,
		AgeBand:         profile.AgeBand,
		FranchiseCHF:    &profile.FranchiseCHF,
		AccidentCovered: &profile.AccidentCovered,
		Limit:           uint64(2 * limit),
	})
	if err != nil {
		return nil, queryErr(ctx, "CompareYears", err)
	}

	type offerKey struct{ insurerID, model string }
	before := make(map[offerKey]float64)
	for _, p := range byYear[year1] {
		k := offerKey{p.InsurerID, p.ModelType}
		// rows are ascending, keep the cheapest region
		if _, ok := before[k]; !ok {
			before[k] = p.MonthlyPremiumCHF
		}
	}

	after := byYear[year2]
	if len(after) > limit {
		after = after[:limit]
	}

	data := make([]dto.YearsComparisonEntry, 0, len(after))
	var changeSum float64
	for _, p := range after {
		old, ok := before[offerKey{p.InsurerID, p.ModelType}]
		if !ok || old == 0 {
			continue
		}
		change := p.MonthlyPremiumCHF - old
		entry := dto.YearsComparisonEntry{
			Insurer:         dto.InsurerRef{ID: p.InsurerID, Name: insurerName(ctx, p)},
			ModelType:       p.ModelType,
			Year1PremiumCHF: aggregate.Round2(old),
			Year2PremiumCHF: aggregate.Round2(p.MonthlyPremiumCHF),
			ChangeCHF:       aggregate.Round2(change),
			ChangePercent:   aggregate.Round2(change / old * 100),
		}
		changeSum += entry.ChangePercent
		data = append(data, entry)
	}

	var avgChange float64
	if len(data) > 0 {
		avgChange = aggregate.Round2(changeSum / float64(len(data)))
	}

	return &dto.CompareYearsResponse{
		Success: true,
		Comparison: dto.YearsComparisonQuery{
			Year1:   year1,
			Year2:   year2,
			Canton:  canton,
			Profile: profile.Name,
		},
		Statistics: dto.YearsComparisonStatistics{
			AvgChangePercent: avgChange,
			InsurersCompared: len(data),
		},
		Data:   data,
		Source: domain.HistoricalSource,
	}, nil
}

// Ranking lists the cheapest offers of several years and names the insurers that
// keep showing up.
func (s *Service) Ranking(ctx context.Context, req dto.RankingRequest) (*dto.RankingResponse, error) {
	canton, err := params.Canton(or(req.Canton, defaultCanton))
	if err != nil {
		return nil, err
	}
	profile, err := params.LookupProfile(or(req.Profile, params.DefaultProfile))
	if err != nil {
		return nil, err
	}
	years, err := params.Years(or(req.Years, defaultRankingYears))
	if err != nil {
		return nil, err
	}
	top := params.Limit(req.Top, defaultRankingTop, params.MaxLimit)

	byYear, err := s.listYears(ctx, years, store.PremiumFilter{
		Canton:          canton,
		AgeBand:         profile.AgeBand,
		FranchiseCHF:    &profile.FranchiseCHF,
		AccidentCovered: &profile.AccidentCovered,
		Limit:           uint64(top),
	})
	if err != nil {
		return nil, queryErr(ctx, "Ranking", err)
	}

	rankings := make(map[int][]dto.RankEntry, len(years))
	appearances := make(map[string]int)
	var order []string
	for _, year := range years {
		entries := make([]dto.RankEntry, 0, len(byYear[year]))
		for i, p := range byYear[year] {
			name := insurerName(ctx, p)
			entries = append(entries, dto.RankEntry{
				Rank:       i + 1,
				Insurer:    name,
				Model:      p.ModelType,
				PremiumCHF: aggregate.Round2(p.MonthlyPremiumCHF),
			})
			if _, ok := appearances[name]; !ok {
				order = append(order, name)
			}
			appearances[name]++
		}
		rankings[year] = entries
	}

	consistent := make([]string, 0)
	for _, name := range order {
		if float64(appearances[name]) >= float64(len(years))*consistencyShare {
			consistent = append(consistent, name)
		}
	}

	return &dto.RankingResponse{
		Success: true,
		Query: dto.RankingQuery{
			Canton:  canton,
			Profile: profile.Name,
			Years:   years,
			Top:     top,
		},
		Rankings: rankings,
		Insights: dto.RankingInsights{
			ConsistentPerformers: consistent,
			YearsAnalyzed:        len(years),
			Interpretation:       interpretRanking(consistent),
		},
		Source: domain.HistoricalSource,
	}, nil
}

func interpretRanking(consistent []string) string {
	switch len(consistent) {
	case 0:
		return "Keine Kasse war durchgehend in allen Jahren unter den Top-Günstigsten."
	case 1:
		return consistent[0] + " war über mehrere Jahre konstant unter den günstigsten."
	default:
		return strings.Join(consistent, ", ") + " waren über mehrere Jahre konstant unter den günstigsten."
	}
}
