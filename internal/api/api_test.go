package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ougirez/premiums/internal/api/controller"
	"github.com/ougirez/premiums/internal/config"
	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/params"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/utils"
	"github.com/ougirez/premiums/internal/service/premiums"
)

const (
	testAPIKey      = "test-api-key"
	testAdminSecret = "test-admin-secret"
)

type fakePremiums struct {
	err       error
	quoteReq  dto.QuoteRequest
	compare   dto.CompareRequest
	chartArgs url.Values
}

func (f *fakePremiums) Meta(context.Context) (*dto.MetaResponse, error) {
	return &dto.MetaResponse{APIVersion: "1.0.0"}, f.err
}

func (f *fakePremiums) LookupRegion(_ context.Context, plz string) (*dto.RegionLookupResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RegionLookupResponse{PLZ: plz, Canton: "ZH"}, nil
}

func (f *fakePremiums) Quote(_ context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	f.quoteReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.QuoteResponse{}, nil
}

func (f *fakePremiums) Cheapest(context.Context, dto.CheapestRequest) (*dto.CheapestResponse, error) {
	return &dto.CheapestResponse{}, f.err
}

func (f *fakePremiums) Compare(_ context.Context, req dto.CompareRequest) (*dto.CompareResponse, error) {
	f.compare = req
	return &dto.CompareResponse{}, f.err
}

func (f *fakePremiums) Timeline(context.Context, dto.TimelineRequest) (*dto.TimelineResponse, error) {
	return &dto.TimelineResponse{}, f.err
}

func (f *fakePremiums) Inflation(context.Context, dto.InflationRequest) (*dto.InflationResponse, error) {
	return &dto.InflationResponse{}, f.err
}

func (f *fakePremiums) CompareYears(context.Context, dto.CompareYearsRequest) (*dto.CompareYearsResponse, error) {
	return &dto.CompareYearsResponse{}, f.err
}

func (f *fakePremiums) Ranking(context.Context, dto.RankingRequest) (*dto.RankingResponse, error) {
	return &dto.RankingResponse{}, f.err
}

func (f *fakePremiums) ChartImage(_ context.Context, query url.Values) *premiums.Image {
	f.chartArgs = query
	return &premiums.Image{Body: []byte("png"), ContentType: "image/png", CacheControl: constants.CacheControlNoCache}
}

type fakeLeads struct{ err error }

func (f fakeLeads) Submit(context.Context, dto.LeadRequest) (*dto.LeadResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.LeadResponse{Success: true, LeadID: "lead-1"}, nil
}

type fakeImporter struct{ req *dto.ImportRequest }

func (f *fakeImporter) Run(_ context.Context, req dto.ImportRequest) (*dto.ImportResponse, error) {
	f.req = &req
	return &dto.ImportResponse{Success: true}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fixture struct {
	svc      *APIService
	premiums *fakePremiums
	importer *fakeImporter
	db       *fakePinger
}

func newFixture(t *testing.T, rateLimit int) *fixture {
	t.Helper()
	f := &fixture{premiums: &fakePremiums{}, importer: &fakeImporter{}, db: &fakePinger{}}

	cfg := &config.Config{
		HTTP: config.HTTP{RateLimit: rateLimit, RateWindow: time.Hour},
		Auth: config.Auth{APIKey: testAPIKey, AdminSecret: testAdminSecret},
	}
	cntrl := controller.NewController(f.premiums, fakeLeads{}, f.importer, f.db)

	svc, err := NewAPIService(cfg, cntrl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.limiter.Stop)
	f.svc = svc
	return f
}

func (f *fixture) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.svc.ServeHTTP(rec, req)
	return rec
}

func withKey(extra ...string) map[string]string {
	h := map[string]string{constants.HeaderAPIKey: testAPIKey}
	for i := 0; i+1 < len(extra); i += 2 {
		h[extra[i]] = extra[i+1]
	}
	return h
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorBody {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestAPIKeyRequired(t *testing.T) {
	f := newFixture(t, 1000)

	for _, key := range []string{"", "wrong", testAPIKey + "x"} {
		rec := f.do(http.MethodGet, "/api/v1/meta/sources", "", map[string]string{constants.HeaderAPIKey: key})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("key %q: status = %d", key, rec.Code)
		}
		body := decodeError(t, rec)
		if body.Code != constants.CodeUnauthorized || body.Docs != defaultDocsURL+"unauthorized" {
			t.Errorf("body = %+v", body)
		}
		if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
			t.Errorf("timestamp %q: %v", body.Timestamp, err)
		}
	}

	for _, r := range f.svc.router.Routes() {
		if !strings.HasPrefix(r.Path, "/api/v1/") {
			continue
		}
		rec := f.do(r.Method, r.Path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without key: %d", r.Method, r.Path, rec.Code)
		}
	}
}

func TestQuoteBindsQuery(t *testing.T) {
	f := newFixture(t, 1000)

	rec := f.do(http.MethodGet, "/api/v1/premiums/quote?canton=ZH&age_band=adult&franchise_chf=300&limit=3", "", withKey())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Cache-Control"); got != constants.CacheControlPublic {
		t.Errorf("Cache-Control = %q", got)
	}
	want := dto.QuoteRequest{Canton: "ZH", AgeBand: "adult", FranchiseCHF: "300", Limit: "3"}
	if f.premiums.quoteReq != want {
		t.Errorf("request = %+v", f.premiums.quoteReq)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id")
	}
}

func TestServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		leak   string
	}{
		{"validation", params.ErrInvalidCanton, http.StatusBadRequest, constants.CodeInvalidCanton, ""},
		{"no results", constants.ErrNoResults, http.StatusNotFound, constants.CodeNoResults, ""},
		{"query", constants.ErrQuery, http.StatusInternalServerError, constants.CodeQuery, ""},
		{"unknown", errors.New("pq: connection reset by peer"), http.StatusInternalServerError, constants.CodeInternal, "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1000)
			f.premiums.err = tt.err

			rec := f.do(http.MethodGet, "/api/v1/premiums/cheapest?canton=XX", "", withKey())
			if rec.Code != tt.status {
				t.Fatalf("status = %d", rec.Code)
			}
			if body := decodeError(t, rec); body.Code != tt.code {
				t.Errorf("code = %s", body.Code)
			}
			if tt.leak != "" && strings.Contains(rec.Body.String(), tt.leak) {
				t.Errorf("internal error leaked: %s", rec.Body)
			}
			if rec.Header().Get("Cache-Control") == constants.CacheControlPublic {
				t.Error("error response marked cacheable")
			}
		})
	}
}

func TestRouteErrors(t *testing.T) {
	f := newFixture(t, 1000)

	rec := f.do(http.MethodGet, "/api/v1/nope", "", withKey())
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != constants.CodeNotFound {
		t.Errorf("unknown route: %d %s", rec.Code, rec.Body)
	}

	for _, target := range []string{"/api/v1/premiums/compare", "/api/v1/leads", "/api/v1/admin/import"} {
		rec = f.do(http.MethodGet, target, "", withKey())
		if rec.Code != http.StatusMethodNotAllowed || decodeError(t, rec).Code != constants.CodeMethodNotAllowed {
			t.Errorf("GET %s: %d %s", target, rec.Code, rec.Body)
		}
	}
}

func TestCompareBody(t *testing.T) {
	f := newFixture(t, 1000)

	body := `{"canton":"ZH","for_profile":"family","options":[{"insurer_id":"0008","model_type":"hmo","franchise_chf":300},{"insurer_id":"1560","model_type":"standard"}]}`
	rec := f.do(http.MethodPost, "/api/v1/premiums/compare", body, withKey())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(f.premiums.compare.Options) != 2 || f.premiums.compare.Options[0].FranchiseCHF != 300 {
		t.Errorf("compare = %+v", f.premiums.compare)
	}
	if got := rec.Header().Get("Cache-Control"); got == constants.CacheControlPublic {
		t.Errorf("POST response marked cacheable")
	}

	rec = f.do(http.MethodPost, "/api/v1/premiums/compare", `{"options": [`, withKey())
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != constants.CodeInvalidRequest {
		t.Errorf("bad json: %d %s", rec.Code, rec.Body)
	}

	rec = f.do(http.MethodPost, "/api/v1/premiums/compare", `{"options":[{"model_type":"hmo"},{"insurer_id":"1","model_type":"hmo"}]}`, withKey())
	if rec.Code != http.StatusBadRequest || !strings.Contains(decodeError(t, rec).Message, "insurer_id") {
		t.Errorf("missing field: %d %s", rec.Code, rec.Body)
	}
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t, 1000)

	rec := f.do(http.MethodPost, "/api/v1/leads", `{"email":"a@b.ch"}`, withKey())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp dto.LeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.LeadID != "lead-1" {
		t.Errorf("resp = %+v, err = %v", resp, err)
	}
}

func TestAdminImport(t *testing.T) {
	f := newFixture(t, 1000)

	rec := f.do(http.MethodPost, "/api/v1/admin/import", `{"years":[2024]}`, withKey())
	if rec.Code != http.StatusForbidden || decodeError(t, rec).Code != constants.CodeForbidden {
		t.Fatalf("without token: %d %s", rec.Code, rec.Body)
	}

	forged, _ := utils.GenerateAdminToken("other-secret", "ops", time.Hour)
	rec = f.do(http.MethodPost, "/api/v1/admin/import", `{"years":[2024]}`, withKey("Authorization", "Bearer "+forged))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("forged token: %d", rec.Code)
	}

	token, err := utils.GenerateAdminToken(testAdminSecret, "ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rec = f.do(http.MethodPost, "/api/v1/admin/import", `{"years":[2024],"migrate":true}`, withKey("Authorization", "Bearer "+token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if f.importer.req == nil || f.importer.req.Years[0] != 2024 || !f.importer.req.Migrate {
		t.Errorf("import request = %+v", f.importer.req)
	}

	f.importer.req = nil
	rec = f.do(http.MethodPost, "/api/v1/admin/import", `{"years":[2005]}`, withKey("Cookie", constants.CookieKeyAdminToken+"="+token))
	if rec.Code != http.StatusBadRequest || f.importer.req != nil {
		t.Errorf("out of range year: %d", rec.Code)
	}
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t, 1000)

	rec := f.do(http.MethodGet, "/charts/img?type=comparison&canton=ZH&sig=abc", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Fatalf("chart: %d %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Content-Type") != "image/png" || rec.Header().Get("Cache-Control") != constants.CacheControlNoCache {
		t.Errorf("headers = %v", rec.Header())
	}
	if f.premiums.chartArgs.Get("sig") != "abc" {
		t.Errorf("query = %v", f.premiums.chartArgs)
	}

	if rec := f.do(http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	f.db.err = errors.New("down")
	if rec := f.do(http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz with db down = %d", rec.Code)
	}

	if rec := f.do(http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, 2)

	for i := 0; i < 2; i++ {
		if rec := f.do(http.MethodGet, "/api/v1/meta/sources", "", withKey()); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec := f.do(http.MethodGet, "/api/v1/meta/sources", "", withKey())
	if rec.Code != http.StatusTooManyRequests || decodeError(t, rec).Code != constants.CodeRateLimited {
		t.Errorf("third request: %d %s", rec.Code, rec.Body)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") || rl.Allow("10.0.0.1") {
		t.Error("first IP should get exactly one request")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second IP has its own bucket")
	}

	rl.cleanup(time.Now().Add(time.Minute))
	if !rl.Allow("10.0.0.1") {
		t.Error("idle bucket should have been dropped")
	}

	unlimited := NewRateLimiter(0, time.Hour)
	defer unlimited.Stop()
	for i := 0; i < 10; i++ {
		if !unlimited.Allow("10.0.0.1") {
			t.Fatal("zero limit should disable limiting")
		}
	}
}
