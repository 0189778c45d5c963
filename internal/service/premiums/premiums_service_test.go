package premiums

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ougirez/premiums/internal/chart"
	"github.com/ougirez/premiums/internal/chartsig"
	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/params"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/store"
)

const testChartBase = "https://api.example.ch"

type fakeStore struct {
	mu      sync.Mutex
	filters []store.PremiumFilter

	listFn   func(store.PremiumFilter) ([]*domain.Premium, error)
	pointsFn func(store.PremiumFilter) ([]domain.YearPoint, error)
	count    int64
	insurers map[string]*domain.Insurer
	location *domain.Location
}

func (f *fakeStore) record(filter store.PremiumFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
}

func (f *fakeStore) calls() []store.PremiumFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.PremiumFilter(nil), f.filters...)
}

func (f *fakeStore) ListPremiums(_ context.Context, filter store.PremiumFilter) ([]*domain.Premium, error) {
	f.record(filter)
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(filter)
}

func (f *fakeStore) ListYearPoints(_ context.Context, filter store.PremiumFilter) ([]domain.YearPoint, error) {
	f.record(filter)
	if f.pointsFn == nil {
		return nil, nil
	}
	return f.pointsFn(filter)
}

func (f *fakeStore) CountPremiums(context.Context) (int64, error) {
	return f.count, nil
}

func (f *fakeStore) GetInsurer(_ context.Context, id string) (*domain.Insurer, error) {
	if insurer, ok := f.insurers[id]; ok {
		return insurer, nil
	}
	return nil, constants.ErrDBNotFound
}

func (f *fakeStore) GetLocationByZip(context.Context, string) (*domain.Location, error) {
	if f.location == nil {
		return nil, constants.ErrDBNotFound
	}
	return f.location, nil
}

type fakeRenderer struct {
	mu    sync.Mutex
	specs []chart.Spec

	urlErr   error
	fetchErr error
}

func (r *fakeRenderer) URL(_ context.Context, spec chart.Spec) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, spec)
	if r.urlErr != nil {
		return "", r.urlErr
	}
	return "https://quickchart.io/chart/render/test", nil
}

func (r *fakeRenderer) Fetch(context.Context, string) ([]byte, string, error) {
	if r.fetchErr != nil {
		return nil, "", r.fetchErr
	}
	return []byte("png-bytes"), "image/png", nil
}

func newTestService(t *testing.T, st *fakeStore, r *fakeRenderer) (*Service, *chartsig.Signer) {
	t.Helper()
	signer, err := chartsig.NewSigner("test-secret", testChartBase)
	if err != nil {
		t.Fatal(err)
	}
	return NewPremiumsService(st, r, signer, 2026), signer
}

func premium(insurerID, name, model string, monthly float64) *domain.Premium {
	p := &domain.Premium{
		Year:              2026,
		InsurerID:         insurerID,
		Canton:            "ZH",
		RegionCode:        "0",
		AgeBand:           domain.AgeBandAdult,
		FranchiseCHF:      2500,
		ModelType:         model,
		MonthlyPremiumCHF: monthly,
	}
	if name != "" {
		p.InsurerName = &name
	}
	return p
}

func listOf(rows ...*domain.Premium) func(store.PremiumFilter) ([]*domain.Premium, error) {
	return func(store.PremiumFilter) ([]*domain.Premium, error) {
		return rows, nil
	}
}

func TestQuote(t *testing.T) {
	st := &fakeStore{listFn: listOf(
		premium("0008", "CSS", domain.ModelStandard, 280),
		premium("1560", "", domain.ModelHMO, 300),
		premium("0062", "Helsana", domain.ModelStandard, 320),
	)}
	r := &fakeRenderer{}
	s, _ := newTestService(t, st, r)

	resp, err := s.Quote(context.Background(), dto.QuoteRequest{
		Canton:          "ZH",
		AgeBand:         "adult",
		FranchiseCHF:    "2500",
		AccidentCovered: "false",
	})
	if err != nil {
		t.Fatal(err)
	}

	calls := st.calls()
	if len(calls) != 1 {
		t.Fatalf("store calls = %d", len(calls))
	}
	f := calls[0]
	if *f.Year != 2026 || f.Canton != "ZH" || f.AgeBand != "adult" || *f.FranchiseCHF != 2500 ||
		*f.AccidentCovered || f.ModelType != "" || f.Limit != params.DefaultLimit {
		t.Errorf("filter = %+v", f)
	}

	if resp.Count != 3 || len(resp.Results) != 3 {
		t.Fatalf("count = %d", resp.Count)
	}
	if got := resp.Statistics; got.Min != 280 || got.Max != 320 || got.Median != 300 || got.Average != 300 {
		t.Errorf("statistics = %+v", got)
	}
	if resp.Results[1].InsurerName != "KPT" {
		t.Errorf("fallback name = %s", resp.Results[1].InsurerName)
	}
	if resp.Results[0].AnnualPremiumCHF != 3360 {
		t.Errorf("annual = %v", resp.Results[0].AnnualPremiumCHF)
	}
	if resp.Query.AccidentCovered {
		t.Error("explicit accident_covered=false ignored")
	}
	if resp.ChartURL != "https://quickchart.io/chart/render/test" {
		t.Errorf("chart url = %s", resp.ChartURL)
	}

	if len(r.specs) != 1 {
		t.Fatalf("rendered %d charts", len(r.specs))
	}
	data := r.specs[0].Config.Data.Datasets[0].Data
	if len(data) != 3 || data[0] != 280 || data[1] != 300 || data[2] != 320 {
		t.Errorf("bars = %v", data)
	}
}

func TestQuoteAccidentDefaultsToCovered(t *testing.T) {
	st := &fakeStore{listFn: listOf(premium("0008", "CSS", domain.ModelStandard, 280))}
	s, _ := newTestService(t, st, &fakeRenderer{})

	if _, err := s.Quote(context.Background(), dto.QuoteRequest{Canton: "ZH", AgeBand: "adult", FranchiseCHF: "300", Limit: "500"}); err != nil {
		t.Fatal(err)
	}
	f := st.calls()[0]
	if !*f.AccidentCovered {
		t.Error("accident_covered default should be true")
	}
	if f.Limit != params.MaxLimit {
		t.Errorf("limit = %d", f.Limit)
	}
}

func TestQuoteRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  dto.QuoteRequest
		want error
	}{
		{"canton", dto.QuoteRequest{Canton: "XX", AgeBand: "adult", FranchiseCHF: "300"}, params.ErrInvalidCanton},
		{"missing canton", dto.QuoteRequest{AgeBand: "adult", FranchiseCHF: "300"}, params.ErrInvalidCanton},
		{"age band", dto.QuoteRequest{Canton: "ZH", AgeBand: "senior", FranchiseCHF: "300"}, params.ErrInvalidAgeBand},
		{"franchise", dto.QuoteRequest{Canton: "ZH", AgeBand: "adult", FranchiseCHF: "750"}, params.ErrInvalidFranchise},
		{"missing franchise", dto.QuoteRequest{Canton: "ZH", AgeBand: "adult"}, params.ErrInvalidFranchise},
		{"model", dto.QuoteRequest{Canton: "ZH", AgeBand: "adult", FranchiseCHF: "300", ModelType: "premium"}, params.ErrInvalidModelType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{}
			s, _ := newTestService(t, st, &fakeRenderer{})

			_, err := s.Quote(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(st.calls()) != 0 {
				t.Error("store queried for invalid input")
			}
		})
	}
}

func TestQuoteNoResults(t *testing.T) {
	s, _ := newTestService(t, &fakeStore{}, &fakeRenderer{})

	_, err := s.Quote(context.Background(), dto.QuoteRequest{Canton: "ZH", AgeBand: "adult", FranchiseCHF: "300"})
	if !errors.Is(err, constants.ErrNoResults) {
		t.Errorf("err = %v", err)
	}
}

func TestQuoteStoreFailure(t *testing.T) {
	st := &fakeStore{listFn: func(store.PremiumFilter) ([]*domain.Premium, error) {
		return nil, errors.New("connection reset")
	}}
	s, _ := newTestService(t, st, &fakeRenderer{})

	_, err := s.Quote(context.Background(), dto.QuoteRequest{Canton: "ZH", AgeBand: "adult", FranchiseCHF: "300"})
	if !errors.Is(err, constants.ErrQuery) {
		t.Errorf("err = %v", err)
	}
}

func TestQuoteChartFallsBackToSignedURL(t *testing.T) {
	st := &fakeStore{listFn: listOf(premium("0008", "CSS", domain.ModelStandard, 280))}
	s, signer := newTestService(t, st, &fakeRenderer{urlErr: errors.New("renderer down")})

	resp, err := s.Quote(context.Background(), dto.QuoteRequest{Canton: "ZH", AgeBand: "adult", FranchiseCHF: "300"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.ChartURL, testChartBase+"/charts/img?") {
		t.Fatalf("chart url = %s", resp.ChartURL)
	}

	u, err := url.Parse(resp.ChartURL)
	if err != nil {
		t.Fatal(err)
	}
	token, ok := signer.Verify(context.Background(), u.Query())
	if !ok {
		t.Fatal("fallback url does not verify")
	}
	if token.Kind != chart.KindComparison || token.Params.Canton != "ZH" || *token.Params.Limit != 5 ||
		*token.Params.FranchiseCHF != 300 || !*token.Params.AccidentCovered {
		t.Errorf("token = %+v", token)
	}
}

func TestCheapest(t *testing.T) {
	st := &fakeStore{listFn: listOf(
		premium("0008", "CSS", domain.ModelStandard, 200),
		premium("0062", "Helsana", domain.ModelStandard, 300),
		premium("1560", "KPT", domain.ModelStandard, 400),
	)}
	s, _ := newTestService(t, st, &fakeRenderer{})

	resp, err := s.Cheapest(context.Background(), dto.CheapestRequest{Canton: "BE", Profile: "family_2kids", Limit: "2"})
	if err != nil {
		t.Fatal(err)
	}

	f := st.calls()[0]
	if f.Canton != "BE" || f.AgeBand != "adult" || *f.FranchiseCHF != 500 || !*f.AccidentCovered || f.Limit != 0 {
		t.Errorf("filter = %+v", f)
	}

	if len(resp.Recommendations) != 2 {
		t.Fatalf("recommendations = %d", len(resp.Recommendations))
	}
	first := resp.Recommendations[0]
	if first.Rank != 1 || first.SavingsVsAverage != 100 || first.SavingsPercentage != 33.33 {
		t.Errorf("first = %+v", first)
	}
	if resp.Statistics.TotalOptions != 3 || resp.Statistics.AveragePremium != 300 || resp.Statistics.MedianPremium != 300 {
		t.Errorf("statistics = %+v", resp.Statistics)
	}
	if resp.Profile.Name != "family_2kids" || resp.Disclaimer != cheapestDisclaimer {
		t.Errorf("resp = %+v", resp)
	}
}

// The median of an even count is the upper middle value, not the mean of both.
func TestCheapestUpperMedian(t *testing.T) {
	st := &fakeStore{listFn: listOf(
		premium("0008", "CSS", domain.ModelStandard, 200),
		premium("0062", "Helsana", domain.ModelStandard, 300),
		premium("1560", "KPT", domain.ModelStandard, 400),
		premium("0032", "Concordia", domain.ModelStandard, 500),
	)}
	s, _ := newTestService(t, st, &fakeRenderer{})

	resp, err := s.Cheapest(context.Background(), dto.CheapestRequest{Canton: "ZH", Profile: "couple"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Statistics.MedianPremium != 400 {
		t.Errorf("median = %v, want upper middle 400", resp.Statistics.MedianPremium)
	}
}

func TestCheapestEmpty(t *testing.T) {
	r := &fakeRenderer{}
	s, _ := newTestService(t, &fakeStore{}, r)

	resp, err := s.Cheapest(context.Background(), dto.CheapestRequest{Canton: "ZH", Profile: "student"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Recommendations) != 0 || resp.ChartURL != "" || len(r.specs) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCheapestValidatesCantonFirst(t *testing.T) {
	s, _ := newTestService(t, &fakeStore{}, &fakeRenderer{})

	_, err := s.Cheapest(context.Background(), dto.CheapestRequest{Canton: "XX", Profile: "nope"})
	if !errors.Is(err, params.ErrInvalidCanton) {
		t.Errorf("err = %v", err)
	}
	_, err = s.Cheapest(context.Background(), dto.CheapestRequest{Canton: "ZH"})
	if !errors.Is(err, params.ErrInvalidProfile) {
		t.Errorf("err = %v", err)
	}
}

func TestCompare(t *testing.T) {
	prices := map[string]float64{"0008": 330, "0062": 300}
	st := &fakeStore{listFn: func(f store.PremiumFilter) ([]*domain.Premium, error) {
		price, ok := prices[f.InsurerID]
		if !ok {
			return nil, nil
		}
		return []*domain.Premium{premium(f.InsurerID, "", f.ModelType, price)}, nil
	}}
	s, _ := newTestService(t, st, &fakeRenderer{})

	resp, err := s.Compare(context.Background(), dto.CompareRequest{
		Canton:     "ZH",
		ForProfile: "single_adult",
		Options: []dto.CompareOption{
			{InsurerID: "8", ModelType: "standard", FranchiseCHF: 2500},
			{InsurerID: "62", ModelType: "hmo", FranchiseCHF: 2500},
			{InsurerID: "1560", ModelType: "telmed", FranchiseCHF: 2500},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	calls := st.calls()
	if len(calls) != 3 {
		t.Fatalf("store calls = %d", len(calls))
	}
	for _, f := range calls {
		if f.Limit != 1 || *f.AccidentCovered || f.AgeBand != "adult" {
			t.Errorf("filter = %+v", f)
		}
	}

	if len(resp.Comparison) != 2 {
		t.Fatalf("comparison = %+v", resp.Comparison)
	}
	if resp.Comparison[0].InsurerID != "0062" || resp.Comparison[1].InsurerID != "0008" {
		t.Errorf("order = %s, %s", resp.Comparison[0].InsurerID, resp.Comparison[1].InsurerID)
	}
	if d := resp.Comparison[1]; d.DifferenceFromCheapest != 30 || d.PercentageFromCheapest != 10 {
		t.Errorf("difference = %+v", d)
	}
	if resp.Cheapest.InsurerID != "0062" || resp.MostExpensive.MonthlyPremiumCHF != 330 {
		t.Errorf("cheapest = %+v, most expensive = %+v", resp.Cheapest, resp.MostExpensive)
	}
}

func TestCompareErrors(t *testing.T) {
	two := []dto.CompareOption{
		{InsurerID: "0008", ModelType: "standard", FranchiseCHF: 300},
		{InsurerID: "0062", ModelType: "standard", FranchiseCHF: 300},
	}
	tests := []struct {
		name string
		req  dto.CompareRequest
		want error
	}{
		{"one option", dto.CompareRequest{Canton: "ZH", ForProfile: "couple", Options: two[:1]}, constants.ErrInvalidOptions},
		{"canton", dto.CompareRequest{Canton: "", ForProfile: "couple", Options: two}, params.ErrInvalidCanton},
		{"profile", dto.CompareRequest{Canton: "ZH", ForProfile: "", Options: two}, params.ErrInvalidProfile},
		{"no premiums", dto.CompareRequest{Canton: "ZH", ForProfile: "couple", Options: two}, constants.ErrNoResults},
		{
			"franchise",
			dto.CompareRequest{Canton: "ZH", ForProfile: "couple", Options: []dto.CompareOption{two[0], {InsurerID: "0062", ModelType: "standard", FranchiseCHF: 333}}},
			params.ErrInvalidFranchise,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t, &fakeStore{}, &fakeRenderer{})
			if _, err := s.Compare(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTimeline(t *testing.T) {
	st := &fakeStore{pointsFn: func(store.PremiumFilter) ([]domain.YearPoint, error) {
		return []domain.YearPoint{
			{Year: 2016, Value: 400, RegionCode: "1"},
			{Year: 2016, Value: 420, RegionCode: "2"},
			{Year: 2017, Value: 430, RegionCode: "1"},
		}, nil
	}}
	s, _ := newTestService(t, st, &fakeRenderer{})

	resp, err := s.Timeline(context.Background(), dto.TimelineRequest{InsurerID: "css", Canton: "ZH"})
	if err != nil {
		t.Fatal(err)
	}

	f := st.calls()[0]
	if f.InsurerID != "0008" || *f.YearFrom != 2016 || *f.YearTo != 2025 || f.AgeBand != "adult" ||
		*f.FranchiseCHF != 2500 || *f.AccidentCovered || f.ModelType != "standard" {
		t.Errorf("filter = %+v", f)
	}

	if resp.Insurer.ID != "0008" || resp.Insurer.Name != "CSS" {
		t.Errorf("insurer = %+v", resp.Insurer)
	}
	if len(resp.Timeline) != 2 || resp.Timeline[0].Value != 410 || resp.Timeline[1].Value != 430 {
		t.Errorf("timeline = %+v", resp.Timeline)
	}
	if resp.Statistics.TotalChangeCHF != 20 {
		t.Errorf("statistics = %+v", resp.Statistics)
	}
	if resp.Trend == nil || resp.ChartURL == nil {
		t.Error("trend and chart expected for two points")
	}
	if resp.Period != "2016-2025" || resp.Profile != "single_adult" || resp.Source != domain.HistoricalSource {
		t.Errorf("resp = %+v", resp)
	}
}

func TestTimelineSinglePointHasNoChart(t *testing.T) {
	st := &fakeStore{pointsFn: func(store.PremiumFilter) ([]domain.YearPoint, error) {
		return []domain.YearPoint{{Year: 2020, Value: 400}}, nil
	}}
	r := &fakeRenderer{}
	s, _ := newTestService(t, st, r)

	resp, err := s.Timeline(context.Background(), dto.TimelineRequest{
		InsurerID:       "0008",
		Canton:          "BE",
		FranchiseCHF:    "300",
		AccidentCovered: "true",
		StartYear:       "2020",
		EndYear:         "2020",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ChartURL != nil || resp.Trend != nil || len(r.specs) != 0 {
		t.Errorf("resp = %+v", resp)
	}
	f := st.calls()[0]
	if *f.FranchiseCHF != 300 || !*f.AccidentCovered {
		t.Errorf("explicit overrides ignored: %+v", f)
	}
}

func TestTimelineErrors(t *testing.T) {
	tests := []struct {
		name string
		req  dto.TimelineRequest
		want error
	}{
		{"missing insurer", dto.TimelineRequest{Canton: "ZH"}, constants.ErrInvalidInsurer},
		{"unknown insurer", dto.TimelineRequest{InsurerID: "Nonexistent Kasse", Canton: "ZH"}, constants.ErrInvalidInsurer},
		{"missing canton", dto.TimelineRequest{InsurerID: "0008"}, params.ErrInvalidCanton},
		{"reversed years", dto.TimelineRequest{InsurerID: "0008", Canton: "ZH", StartYear: "2024", EndYear: "2020"}, params.ErrInvalidYear},
		{"no data", dto.TimelineRequest{InsurerID: "0008", Canton: "ZH"}, constants.ErrNoResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t, &fakeStore{}, &fakeRenderer{})
			if _, err := s.Timeline(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInflationDefaults(t *testing.T) {
	st := &fakeStore{pointsFn: func(store.PremiumFilter) ([]domain.YearPoint, error) {
		return []domain.YearPoint{
			{Year: 2016, Value: 400},
			{Year: 2017, Value: 420},
			{Year: 2018, Value: 441},
		}, nil
	}}
	s, _ := newTestService(t, st, &fakeRenderer{})

	resp, err := s.Inflation(context.Background(), dto.InflationRequest{})
	if err != nil {
		t.Fatal(err)
	}

	f := st.calls()[0]
	if f.Canton != "ZH" || f.AgeBand != "adult" || *f.FranchiseCHF != 2500 || !*f.AccidentCovered || f.ModelType != "standard" {
		t.Errorf("filter = %+v", f)
	}
	if resp.Statistics.YearsAnalyzed != 3 || resp.Statistics.AvgYearlyInflation != 5 || resp.Statistics.TotalInflation != 10.25 {
		t.Errorf("statistics = %+v", resp.Statistics)
	}
	if resp.YearlyData[0].InflationRate != nil || *resp.YearlyData[2].InflationRate != 5 {
		t.Errorf("yearly data = %+v", resp.YearlyData)
	}
	if resp.ChartURL == nil {
		t.Error("chart expected")
	}
}

func TestInflationEmpty(t *testing.T) {
	s, _ := newTestService(t, &fakeStore{}, &fakeRenderer{})

	_, err := s.Inflation(context.Background(), dto.InflationRequest{Canton: "GE", AccidentCovered: "false"})
	if !errors.Is(err, constants.ErrNoResults) {
		t.Errorf("err = %v", err)
	}
}

func TestCompareYears(t *testing.T) {
	st := &fakeStore{listFn: func(f store.PremiumFilter) ([]*domain.Premium, error) {
		switch *f.Year {
		case 2020:
			return []*domain.Premium{
				premium("0008", "CSS", domain.ModelStandard, 250),
				premium("0008", "CSS", domain.ModelStandard, 260),
				premium("0062", "Helsana", domain.ModelStandard, 300),
			}, nil
		case 2025:
			return []*domain.Premium{
				premium("0008", "CSS", domain.ModelStandard, 275),
				premium("1560", "KPT", domain.ModelStandard, 310),
				premium("0062", "Helsana", domain.ModelStandard, 330),
			}, nil
		}
		return nil, nil
	}}
	s, _ := newTestService(t, st, &fakeRenderer{})

	resp, err := s.CompareYears(context.Background(), dto.CompareYearsRequest{})
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range st.calls() {
		if f.Limit != 20 || f.Canton != "ZH" {
			t.Errorf("filter = %+v", f)
		}
	}
	if resp.Comparison.Year1 != 2020 || resp.Comparison.Year2 != 2025 || resp.Comparison.Profile != "single_adult" {
		t.Errorf("comparison = %+v", resp.Comparison)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("data = %+v", resp.Data)
	}
	if d := resp.Data[0]; d.Insurer.ID != "0008" || d.Year1PremiumCHF != 250 || d.ChangeCHF != 25 || d.ChangePercent != 10 {
		t.Errorf("first = %+v", d)
	}
	if resp.Statistics.InsurersCompared != 2 || resp.Statistics.AvgChangePercent != 10 {
		t.Errorf("statistics = %+v", resp.Statistics)
	}
}

func TestRanking(t *testing.T) {
	rows := map[int][]*domain.Premium{
		2020: {premium("0008", "CSS", "hmo", 250), premium("1560", "KPT", "telmed", 255)},
		2023: {premium("0008", "CSS", "hmo", 270), premium("0062", "Helsana", "hmo", 280)},
		2025: {premium("1560", "KPT", "telmed", 290), premium("0134", "Visana", "hmo", 300)},
	}
	st := &fakeStore{listFn: func(f store.PremiumFilter) ([]*domain.Premium, error) {
		return rows[*f.Year], nil
	}}
	s, _ := newTestService(t, st, &fakeRenderer{})

	resp, err := s.Ranking(context.Background(), dto.RankingRequest{Top: "2"})
	if err != nil {
		t.Fatal(err)
	}

	if len(resp.Rankings) != 3 || resp.Rankings[2023][1].Insurer != "Helsana" || resp.Rankings[2023][1].Rank != 2 {
		t.Errorf("rankings = %+v", resp.Rankings)
	}
	got := resp.Insights.ConsistentPerformers
	if len(got) != 2 || got[0] != "CSS" || got[1] != "KPT" {
		t.Errorf("consistent = %v", got)
	}
	want := "CSS, KPT waren über mehrere Jahre konstant unter den günstigsten."
	if resp.Insights.Interpretation != want {
		t.Errorf("interpretation = %q", resp.Insights.Interpretation)
	}
}

func TestInterpretRanking(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{nil, "Keine Kasse war durchgehend in allen Jahren unter den Top-Günstigsten."},
		{[]string{"CSS"}, "CSS war über mehrere Jahre konstant unter den günstigsten."},
	}
	for _, tt := range tests {
		if got := interpretRanking(tt.names); got != tt.want {
			t.Errorf("interpretRanking(%v) = %q", tt.names, got)
		}
	}
}

func TestMetaAndRegion(t *testing.T) {
	st := &fakeStore{
		count:    42,
		location: &domain.Location{ZipCode: "8001", Canton: "ZH", City: "Zürich", RegionCode: "1"},
	}
	s, _ := newTestService(t, st, &fakeRenderer{})
	s.now = func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) }

	meta, err := s.Meta(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if *meta.Current.Records != 42 || meta.Current.LastUpdated != "2026-10-01T12:00:00Z" || meta.APIVersion != "v1" {
		t.Errorf("meta = %+v", meta)
	}

	region, err := s.LookupRegion(context.Background(), "8001")
	if err != nil {
		t.Fatal(err)
	}
	if region.Canton != "ZH" || region.Municipality != "Zürich" {
		t.Errorf("region = %+v", region)
	}

	if _, err := s.LookupRegion(context.Background(), "80a1"); !errors.Is(err, constants.ErrInvalidPLZ) {
		t.Errorf("err = %v", err)
	}
	st.location = nil
	if _, err := s.LookupRegion(context.Background(), "9999"); !errors.Is(err, constants.ErrPLZNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestChartImage(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{listFn: listOf(premium("0008", "CSS", domain.ModelStandard, 280))}
	s, signer := newTestService(t, st, &fakeRenderer{})

	signed, err := url.Parse(signer.URL(chart.KindComparison, chartsig.Params{
		Canton:  "ZH",
		Profile: "couple",
		Limit:   params.Ptr(3),
	}))
	if err != nil {
		t.Fatal(err)
	}

	img := s.ChartImage(ctx, signed.Query())
	if string(img.Body) != "png-bytes" || img.CacheControl != constants.CacheControlPublic {
		t.Errorf("image = %+v", img)
	}
	f := st.calls()[0]
	if f.Canton != "ZH" || f.AgeBand != "adult" || *f.FranchiseCHF != 2500 || !*f.AccidentCovered || f.Limit != 3 {
		t.Errorf("filter = %+v", f)
	}

	tampered := signed.Query()
	tampered.Set("canton", "BE")
	img = s.ChartImage(ctx, tampered)
	if img.CacheControl != constants.CacheControlNoCache || len(img.Body) == 0 || img.ContentType != "image/png" {
		t.Errorf("tampered image = %+v", img)
	}
	if len(st.calls()) != 1 {
		t.Error("store queried for a tampered url")
	}
}

func TestChartImagePlaceholderOnFailure(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		store    *fakeStore
		renderer *fakeRenderer
	}{
		{"no data", &fakeStore{}, &fakeRenderer{}},
		{
			"store error",
			&fakeStore{pointsFn: func(store.PremiumFilter) ([]domain.YearPoint, error) { return nil, errors.New("boom") }},
			&fakeRenderer{},
		},
		{
			"fetch error",
			&fakeStore{pointsFn: func(store.PremiumFilter) ([]domain.YearPoint, error) {
				return []domain.YearPoint{{Year: 2020, Value: 400}, {Year: 2021, Value: 410}}, nil
			}},
			&fakeRenderer{fetchErr: errors.New("timeout")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, signer := newTestService(t, tt.store, tt.renderer)
			signed, _ := url.Parse(signer.URL(chart.KindInflation, chartsig.Params{Canton: "BE"}))

			img := s.ChartImage(ctx, signed.Query())
			if img.CacheControl != constants.CacheControlNoCache || string(img.Body) != string(placeholderPNG) {
				t.Errorf("image = %+v", img)
			}
		})
	}
}

func TestChartImageTimelineGroupsByRegion(t *testing.T) {
	st := &fakeStore{pointsFn: func(store.PremiumFilter) ([]domain.YearPoint, error) {
		return []domain.YearPoint{
			{Year: 2020, Value: 400, RegionCode: "1"},
			{Year: 2021, Value: 410, RegionCode: "1"},
			{Year: 2020, Value: 380, RegionCode: "2"},
			{Year: 2021, Value: 390},
		}, nil
	}}
	r := &fakeRenderer{}
	s, signer := newTestService(t, st, r)

	signed, _ := url.Parse(signer.URL(chart.KindTimeline, chartsig.Params{Canton: "ZH", InsurerID: "0008", InsurerName: "CSS"}))
	img := s.ChartImage(context.Background(), signed.Query())
	if img.CacheControl != constants.CacheControlPublic {
		t.Fatalf("image = %+v", img)
	}
	if n := len(r.specs[0].Config.Data.Datasets); n != 3 {
		t.Errorf("datasets = %d, want one per region", n)
	}
}
