package premiums

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/ougirez/premiums/internal/aggregate"
	"github.com/ougirez/premiums/internal/chart"
	"github.com/ougirez/premiums/internal/chartsig"
	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/metrics"
	"github.com/ougirez/premiums/internal/normalize"
	"github.com/ougirez/premiums/internal/params"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/pkg/store"
)

const placeholderContentType = "image/png"

// 1x1 transparent PNG
var placeholderPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
)

var errNoChartData = errors.New("no chart data")

type Image struct {
	Body         []byte
	ContentType  string
	CacheControl string
}

func placeholder() *Image {
	return &Image{Body: placeholderPNG, ContentType: placeholderContentType, CacheControl: constants.CacheControlNoCache}
}

// ChartImage serves the image behind a signed chart URL. Any failure, including a
// bad signature, yields the placeholder image instead of an error.
func (s *Service) ChartImage(ctx context.Context, query url.Values) *Image {
	token, ok := s.signer.Verify(ctx, query)
	if !ok {
		metrics.ChartRenders.WithLabelValues("unknown", "invalid").Inc()
		return placeholder()
	}

	c, err := s.chartForToken(ctx, token)
	if err != nil {
		logger.Warnf(ctx, "%s chart data: %v", token.Kind, err)
		metrics.ChartRenders.WithLabelValues(token.Kind.String(), "placeholder").Inc()
		return placeholder()
	}

	imageURL, err := s.renderer.URL(ctx, chart.Build(c))
	if err != nil {
		logger.Warnf(ctx, "%s chart render: %v", token.Kind, err)
		metrics.ChartRenders.WithLabelValues(token.Kind.String(), "placeholder").Inc()
		return placeholder()
	}
	body, contentType, err := s.renderer.Fetch(ctx, imageURL)
	if err != nil {
		logger.Warnf(ctx, "%s chart fetch: %v", token.Kind, err)
		metrics.ChartRenders.WithLabelValues(token.Kind.String(), "placeholder").Inc()
		return placeholder()
	}

	metrics.ChartRenders.WithLabelValues(token.Kind.String(), "rendered").Inc()
	return &Image{Body: body, ContentType: contentType, CacheControl: constants.CacheControlPublic}
}

func (s *Service) chartForToken(ctx context.Context, token chartsig.Token) (chart.Chart, error) {
	switch token.Kind {
	case chart.KindComparison:
		return s.comparisonChart(ctx, token.Params)
	case chart.KindTimeline:
		return s.timelineChart(ctx, token.Params)
	case chart.KindInflation:
		return s.inflationChart(ctx, token.Params)
	default:
		return nil, fmt.Errorf("unknown chart kind %q", token.Kind)
	}
}

// tokenCriteria fills the dimensions a token leaves out from its profile.
func tokenCriteria(p chartsig.Params) (ageBand string, franchise int, accident bool, err error) {
	profile, err := params.LookupProfile(or(p.Profile, params.DefaultProfile))
	if err != nil {
		return "", 0, false, err
	}

	ageBand, franchise, accident = profile.AgeBand, profile.FranchiseCHF, profile.AccidentCovered
	if p.AgeBand != "" {
		ageBand = p.AgeBand
	}
	if p.FranchiseCHF != nil {
		franchise = *p.FranchiseCHF
	}
	if p.AccidentCovered != nil {
		accident = *p.AccidentCovered
	}
	return ageBand, franchise, accident, nil
}

func (s *Service) comparisonChart(ctx context.Context, p chartsig.Params) (chart.Chart, error) {
	ageBand, franchise, accident, err := tokenCriteria(p)
	if err != nil {
		return nil, err
	}
	limit := quoteChartBars
	if p.Limit != nil && *p.Limit > 0 {
		limit = min(*p.Limit, params.MaxLimit)
	}

	premiums, err := s.store.ListPremiums(ctx, store.PremiumFilter{
		Year:            &s.currentYear,
		Canton:          p.Canton,
		AgeBand:         ageBand,
		FranchiseCHF:    &franchise,
		AccidentCovered: &accident,
		ModelType:       p.ModelType,
		Limit:           uint64(limit),
	})
	if err != nil {
		return nil, err
	}
	if len(premiums) == 0 {
		return nil, errNoChartData
	}

	bars := make([]chart.Bar, 0, len(premiums))
	for _, premium := range premiums {
		bars = append(bars, chart.Bar{
			InsurerID:         premium.InsurerID,
			InsurerName:       insurerName(ctx, premium),
			MonthlyPremiumCHF: premium.MonthlyPremiumCHF,
		})
	}

	region := "Schweiz"
	if p.Canton != "" {
		region = normalize.CantonDisplayName(p.Canton)
	}
	return chart.Comparison{
		Title: fmt.Sprintf("Top %d Günstigste - %s", limit, region),
		Bars:  bars,
	}, nil
}

func (s *Service) timelineChart(ctx context.Context, p chartsig.Params) (chart.Chart, error) {
	if p.InsurerID == "" {
		return nil, constants.ErrInvalidInsurer
	}
	ageBand, franchise, accident, err := tokenCriteria(p)
	if err != nil {
		return nil, err
	}
	start, end := tokenYears(p)

	points, err := s.store.ListYearPoints(ctx, store.PremiumFilter{
		YearFrom:        &start,
		YearTo:          &end,
		Canton:          p.Canton,
		InsurerID:       p.InsurerID,
		AgeBand:         ageBand,
		FranchiseCHF:    &franchise,
		AccidentCovered: &accident,
		ModelType:       or(p.ModelType, domain.ModelStandard),
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errNoChartData
	}

	byRegion := make(map[string][]domain.YearPoint)
	for _, point := range points {
		region := normalize.RegionName(or(point.RegionCode, "UNKNOWN"))
		byRegion[region] = append(byRegion[region], point)
	}
	regions := make([]string, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	series := make([]chart.Series, 0, len(regions))
	for _, region := range regions {
		series = append(series, chart.Series{
			Region: region,
			Points: aggregate.Series(aggregate.YearlyAverages(byRegion[region])),
		})
	}

	name := p.InsurerName
	if name == "" {
		name = s.lookupInsurerName(ctx, p.InsurerID)
	}
	return chart.Timeline{InsurerName: name, Series: series}, nil
}

func (s *Service) inflationChart(ctx context.Context, p chartsig.Params) (chart.Chart, error) {
	canton := or(p.Canton, defaultCanton)
	franchise := 2500
	if p.FranchiseCHF != nil {
		franchise = *p.FranchiseCHF
	}
	accident := true
	if p.AccidentCovered != nil {
		accident = *p.AccidentCovered
	}
	start, end := tokenYears(p)

	points, err := s.store.ListYearPoints(ctx, store.PremiumFilter{
		YearFrom:        &start,
		YearTo:          &end,
		Canton:          canton,
		AgeBand:         or(p.AgeBand, domain.AgeBandAdult),
		FranchiseCHF:    &franchise,
		AccidentCovered: &accident,
		ModelType:       or(p.ModelType, domain.ModelStandard),
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errNoChartData
	}

	report := aggregate.Inflation(aggregate.YearlyAverages(points))
	return chart.Inflation{Canton: canton, Years: report.Years}, nil
}

func tokenYears(p chartsig.Params) (int, int) {
	start, end := historyStart, historyEnd
	if p.StartYear != nil {
		start = *p.StartYear
	}
	if p.EndYear != nil {
		end = *p.EndYear
	}
	return start, end
}
