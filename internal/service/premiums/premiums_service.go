package premiums

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ougirez/premiums/internal/chart"
	"github.com/ougirez/premiums/internal/chartsig"
	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/normalize"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/pkg/store"
)

const (
	APIVersion = "v1"

	historyStart = 2016
	historyEnd   = 2025

	// concurrent store lookups per request
	lookupLimit = 4
)

const (
	quoteDisclaimer    = "Preise sind unverbindlich. Bitte prüfen Sie die aktuellen Konditionen direkt beim Versicherer."
	cheapestDisclaimer = "Preise basieren auf Standardannahmen. Individuelle Faktoren können abweichen."
	compareDisclaimer  = "Vergleich basiert auf angegebenen Parametern. Weitere Faktoren können relevant sein."
)

// Store is the part of the storage layer the premium endpoints read from.
type Store interface {
	ListPremiums(ctx context.Context, filter store.PremiumFilter) ([]*domain.Premium, error)
	ListYearPoints(ctx context.Context, filter store.PremiumFilter) ([]domain.YearPoint, error)
	CountPremiums(ctx context.Context) (int64, error)
	GetInsurer(ctx context.Context, insurerID string) (*domain.Insurer, error)
	GetLocationByZip(ctx context.Context, zip string) (*domain.Location, error)
}

// Renderer turns chart specifications into image URLs and images.
type Renderer interface {
	URL(ctx context.Context, spec chart.Spec) (string, error)
	Fetch(ctx context.Context, imageURL string) ([]byte, string, error)
}

// Signer issues and checks signed chart image URLs.
type Signer interface {
	URL(kind chart.Kind, p chartsig.Params) string
	Verify(ctx context.Context, values url.Values) (chartsig.Token, bool)
}

type Service struct {
	store       Store
	renderer    Renderer
	signer      Signer
	currentYear int
	now         func() time.Time
}

func NewPremiumsService(store Store, renderer Renderer, signer Signer, currentYear int) *Service {
	return &Service{
		store:       store,
		renderer:    renderer,
		signer:      signer,
		currentYear: currentYear,
		now:         time.Now,
	}
}

func queryErr(ctx context.Context, op string, err error) error {
	logger.Errorf(ctx, "%s: %v", op, err)
	return constants.ErrQuery
}

// insurerName prefers the name stored with the premium and falls back to the
// static table.
func insurerName(ctx context.Context, p *domain.Premium) string {
	if p.InsurerName != nil && *p.InsurerName != "" {
		return *p.InsurerName
	}
	return normalize.InsurerName(ctx, p.InsurerID)
}

// lookupInsurerName resolves a name for an id without a premium row at hand.
func (s *Service) lookupInsurerName(ctx context.Context, id string) string {
	insurer, err := s.store.GetInsurer(ctx, id)
	if err == nil && insurer.Name != nil && *insurer.Name != "" {
		return *insurer.Name
	}
	if err != nil && !errors.Is(err, constants.ErrDBNotFound) {
		logger.Warnf(ctx, "insurer %s lookup failed: %v", id, err)
	}
	return normalize.InsurerName(ctx, id)
}

func annual(monthly float64) float64 {
	return decimal.NewFromFloat(monthly).Mul(decimal.NewFromInt(12)).Round(2).InexactFloat64()
}

// chartURL renders c through the renderer and falls back to a signed image URL
// served by this API.
func (s *Service) chartURL(ctx context.Context, c chart.Chart, fallback chartsig.Params) string {
	u, err := s.renderer.URL(ctx, chart.Build(c))
	if err == nil {
		return u
	}

	logger.Warnf(ctx, "%s chart url failed, using signed url: %v", c.Kind(), err)
	return s.signer.URL(c.Kind(), fallback)
}

func period(start, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
