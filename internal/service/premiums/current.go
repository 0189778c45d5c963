package premiums

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

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
	quoteChartBars  = 5
	cheapestDefault = 5
)

var plzPattern = regexp.MustCompile(`^\d{4}$`)

func (s *Service) Meta(ctx context.Context) (*dto.MetaResponse, error) {
	count, err := s.store.CountPremiums(ctx)
	if err != nil {
		return nil, queryErr(ctx, "Meta", err)
	}

	source := domain.CurrentSource
	source.LastUpdated = s.now().UTC().Format(time.RFC3339)
	source.Records = &count

	return &dto.MetaResponse{Current: source, APIVersion: APIVersion}, nil
}

func (s *Service) LookupRegion(ctx context.Context, plz string) (*dto.RegionLookupResponse, error) {
	if !plzPattern.MatchString(plz) {
		return nil, constants.ErrInvalidPLZ
	}

	location, err := s.store.GetLocationByZip(ctx, plz)
	if err != nil {
		if errors.Is(err, constants.ErrDBNotFound) {
			return nil, constants.ErrPLZNotFound.WithMessage(fmt.Sprintf("PLZ %s not found in database", plz))
		}
		return nil, queryErr(ctx, "LookupRegion", err)
	}

	return &dto.RegionLookupResponse{
		PLZ:          plz,
		Canton:       location.Canton,
		CantonName:   normalize.CantonDisplayName(location.Canton),
		Municipality: location.City,
		RegionCode:   location.RegionCode,
		RegionName:   normalize.PremiumRegionName(location.RegionCode),
	}, nil
}

// Quote lists the cheapest current premiums for one explicit profile.
func (s *Service) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	c, err := params.Resolve(params.Query{
		Canton:          req.Canton,
		AgeBand:         req.AgeBand,
		Franchise:       req.FranchiseCHF,
		AccidentCovered: req.AccidentCovered,
		ModelType:       req.ModelType,
	}, params.Defaults{AccidentCovered: params.Ptr(true)})
	if err != nil {
		return nil, err
	}
	limit := params.Limit(req.Limit, params.DefaultLimit, params.MaxLimit)

	premiums, err := s.store.ListPremiums(ctx, store.PremiumFilter{
		Year:            &s.currentYear,
		Canton:          c.Canton,
		AgeBand:         c.AgeBand,
		FranchiseCHF:    &c.FranchiseCHF,
		AccidentCovered: &c.AccidentCovered,
		ModelType:       c.ModelType,
		Limit:           uint64(limit),
	})
	if err != nil {
		return nil, queryErr(ctx, "Quote", err)
	}
	if len(premiums) == 0 {
		return nil, constants.ErrNoResults
	}

	results := make([]dto.QuoteResult, 0, len(premiums))
	values := make([]float64, 0, len(premiums))
	for _, p := range premiums {
		results = append(results, dto.QuoteResult{
			InsurerID:         p.InsurerID,
			InsurerName:       insurerName(ctx, p),
			MonthlyPremiumCHF: p.MonthlyPremiumCHF,
			AnnualPremiumCHF:  annual(p.MonthlyPremiumCHF),
			ModelType:         p.ModelType,
			Canton:            p.Canton,
			Region:            normalize.PremiumRegionName(p.RegionCode),
			TariffName:        p.TariffName,
		})
		values = append(values, p.MonthlyPremiumCHF)
	}

	top := results
	if len(top) > quoteChartBars {
		top = top[:quoteChartBars]
	}
	bars := make([]chart.Bar, 0, len(top))
	for _, r := range top {
		bars = append(bars, chart.Bar{InsurerID: r.InsurerID, InsurerName: r.InsurerName, MonthlyPremiumCHF: r.MonthlyPremiumCHF})
	}
	chartURL := s.chartURL(ctx, chart.Comparison{
		Title: fmt.Sprintf("Top %d Günstigste - %s", len(bars), normalize.CantonDisplayName(c.Canton)),
		Bars:  bars,
	}, chartsig.Params{
		Canton:          c.Canton,
		AgeBand:         c.AgeBand,
		ModelType:       c.ModelType,
		FranchiseCHF:    params.Ptr(c.FranchiseCHF),
		AccidentCovered: params.Ptr(c.AccidentCovered),
		Limit:           params.Ptr(quoteChartBars),
	})

	return &dto.QuoteResponse{
		ChartURL: chartURL,
		Query: dto.QuoteQuery{
			Canton:          c.Canton,
			AgeBand:         c.AgeBand,
			FranchiseCHF:    c.FranchiseCHF,
			AccidentCovered: c.AccidentCovered,
			ModelType:       c.ModelType,
		},
		Results:    results,
		Count:      len(results),
		Statistics: aggregate.Stats(values),
		Source:     domain.CurrentSource,
		Disclaimer: quoteDisclaimer,
	}, nil
}

// Cheapest ranks the current offers for a named profile against the average of
// all matching offers.
func (s *Service) Cheapest(ctx context.Context, req dto.CheapestRequest) (*dto.CheapestResponse, error) {
	canton, err := params.Canton(req.Canton)
	if err != nil {
		return nil, err
	}
	profile, err := params.LookupProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	limit := params.Limit(req.Limit, cheapestDefault, params.MaxLimit)

	premiums, err := s.store.ListPremiums(ctx, store.PremiumFilter{
		Year:            &s.currentYear,
		Canton:          canton,
		AgeBand:         profile.AgeBand,
		FranchiseCHF:    &profile.FranchiseCHF,
		AccidentCovered: &profile.AccidentCovered,
	})
	if err != nil {
		return nil, queryErr(ctx, "Cheapest", err)
	}

	values := make([]float64, 0, len(premiums))
	for _, p := range premiums {
		values = append(values, p.MonthlyPremiumCHF)
	}
	stats := aggregate.Stats(values)

	cheapest := premiums
	if len(cheapest) > limit {
		cheapest = cheapest[:limit]
	}

	recommendations := make([]dto.Recommendation, 0, len(cheapest))
	bars := make([]chart.Bar, 0, len(cheapest))
	for i, p := range cheapest {
		savings := stats.Average - p.MonthlyPremiumCHF
		var pct float64
		if stats.Average != 0 {
			pct = savings / stats.Average * 100
		}

		name := insurerName(ctx, p)
		recommendations = append(recommendations, dto.Recommendation{
			Rank:              i + 1,
			InsurerID:         p.InsurerID,
			InsurerName:       name,
			ModelType:         p.ModelType,
			MonthlyPremiumCHF: p.MonthlyPremiumCHF,
			AnnualPremiumCHF:  annual(p.MonthlyPremiumCHF),
			SavingsVsAverage:  aggregate.Round2(savings),
			SavingsPercentage: aggregate.Round2(pct),
			TariffName:        p.TariffName,
		})
		bars = append(bars, chart.Bar{InsurerID: p.InsurerID, InsurerName: name, MonthlyPremiumCHF: p.MonthlyPremiumCHF})
	}

	var chartURL string
	if len(bars) > 0 {
		chartURL = s.chartURL(ctx, chart.Comparison{
			Title: fmt.Sprintf("Top %d Günstigste - %s", len(bars), normalize.CantonDisplayName(canton)),
			Bars:  bars,
		}, chartsig.Params{
			Canton:  canton,
			Profile: profile.Name,
			Limit:   params.Ptr(len(bars)),
		})
	}

	return &dto.CheapestResponse{
		ChartURL:        chartURL,
		Profile:         profile,
		Canton:          canton,
		Recommendations: recommendations,
		Statistics: dto.CheapestStatistics{
			AveragePremium: stats.Average,
			MedianPremium:  stats.Median,
			TotalOptions:   len(premiums),
		},
		Source:     domain.CurrentSource,
		Disclaimer: cheapestDisclaimer,
	}, nil
}

// Compare prices a caller supplied list of offers against each other. Offers
// without a current premium are left out.
func (s *Service) Compare(ctx context.Context, req dto.CompareRequest) (*dto.CompareResponse, error) {
	if len(req.Options) < 2 {
		return nil, constants.ErrInvalidOptions
	}
	canton, err := params.Canton(req.Canton)
	if err != nil {
		return nil, err
	}
	profile, err := params.LookupProfile(req.ForProfile)
	if err != nil {
		return nil, err
	}
	options := make([]dto.CompareOption, len(req.Options))
	for i, o := range req.Options {
		if err := params.FranchiseValue(o.FranchiseCHF); err != nil {
			return nil, err
		}
		model, err := params.ModelType(o.ModelType)
		if err != nil {
			return nil, err
		}
		id := normalize.InsurerID(o.InsurerID)
		if id == "" {
			return nil, constants.ErrInvalidInsurer
		}
		options[i] = dto.CompareOption{InsurerID: id, ModelType: model, FranchiseCHF: o.FranchiseCHF}
	}

	found := make([]*domain.Premium, len(options))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(lookupLimit)
	for i, o := range options {
		i, o := i, o
		eg.Go(func() error {
			premiums, err := s.store.ListPremiums(egCtx, store.PremiumFilter{
				Year:            &s.currentYear,
				Canton:          canton,
				InsurerID:       o.InsurerID,
				ModelType:       o.ModelType,
				FranchiseCHF:    params.Ptr(o.FranchiseCHF),
				AgeBand:         profile.AgeBand,
				AccidentCovered: params.Ptr(profile.AccidentCovered),
				Limit:           1,
			})
			if err != nil {
				return fmt.Errorf("option %s/%s: %w", o.InsurerID, o.ModelType, err)
			}
			if len(premiums) > 0 {
				found[i] = premiums[0]
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, queryErr(ctx, "Compare", err)
	}

	type priced struct {
		option  dto.CompareOption
		premium *domain.Premium
	}
	var rows []priced
	for i, p := range found {
		if p != nil {
			rows = append(rows, priced{options[i], p})
		}
	}
	if len(rows) == 0 {
		return nil, constants.ErrNoResults.WithMessage("No premiums found for comparison")
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].premium.MonthlyPremiumCHF < rows[j].premium.MonthlyPremiumCHF
	})
	cheapest, mostExpensive := rows[0].premium, rows[len(rows)-1].premium

	comparison := make([]dto.CompareEntry, 0, len(rows))
	bars := make([]chart.Bar, 0, len(rows))
	for _, r := range rows {
		diff := r.premium.MonthlyPremiumCHF - cheapest.MonthlyPremiumCHF
		name := insurerName(ctx, r.premium)
		comparison = append(comparison, dto.CompareEntry{
			InsurerID:              r.option.InsurerID,
			InsurerName:            name,
			ModelType:              r.option.ModelType,
			FranchiseCHF:           r.option.FranchiseCHF,
			MonthlyPremiumCHF:      r.premium.MonthlyPremiumCHF,
			AnnualPremiumCHF:       annual(r.premium.MonthlyPremiumCHF),
			DifferenceFromCheapest: aggregate.Round2(diff),
			PercentageFromCheapest: aggregate.Round2(diff / cheapest.MonthlyPremiumCHF * 100),
		})
		bars = append(bars, chart.Bar{InsurerID: r.option.InsurerID, InsurerName: name, MonthlyPremiumCHF: r.premium.MonthlyPremiumCHF})
	}

	chartURL := s.chartURL(ctx, chart.Comparison{
		Title: "Individueller Vergleich - " + normalize.CantonDisplayName(canton),
		Bars:  bars,
	}, chartsig.Params{
		Canton:  canton,
		Profile: profile.Name,
		Limit:   params.Ptr(len(bars)),
	})

	return &dto.CompareResponse{
		ChartURL:      chartURL,
		Comparison:    comparison,
		Cheapest:      dto.PriceRef{InsurerID: cheapest.InsurerID, MonthlyPremiumCHF: cheapest.MonthlyPremiumCHF},
		MostExpensive: dto.PriceRef{InsurerID: mostExpensive.InsurerID, MonthlyPremiumCHF: mostExpensive.MonthlyPremiumCHF},
		Source:        domain.CurrentSource,
		Disclaimer:    compareDisclaimer,
	}, nil
}
