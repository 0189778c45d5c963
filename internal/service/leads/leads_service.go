package leads

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/metrics"
	"github.com/ougirez/premiums/internal/normalize"
	"github.com/ougirez/premiums/internal/params"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/pkg/utils"
)

const (
	leadSource = "chatgpt"
	leadStatus = "new"

	// delivery is not wired, every lead is stored only
	messageStored = "Lead gespeichert (E-Mail-Service nicht konfiguriert)"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Store interface {
	InsertLead(ctx context.Context, lead *domain.Lead) error
}

type Service struct {
	store    Store
	validate *validator.Validate
}

func NewLeadsService(store Store) *Service {
	return &Service{store: store, validate: utils.NewValidator()}
}

// Submit stores a request for an offer and echoes the offer back.
func (s *Service) Submit(ctx context.Context, req dto.LeadRequest) (*dto.LeadResponse, error) {
	lead, err := s.buildLead(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertLead(ctx, lead); err != nil {
		logger.Errorf(ctx, "store.InsertLead: %v", err)
		return nil, constants.ErrQuery
	}
	metrics.LeadsTotal.Inc()
	logger.Infof(ctx, "lead %s stored for insurer %s", lead.ID, lead.InsurerID)

	return &dto.LeadResponse{
		Success:   true,
		LeadID:    lead.ID,
		EmailSent: lead.EmailSent,
		Message:   messageStored,
		Offer: dto.LeadOffer{
			Insurer:           lead.InsurerName,
			MonthlyPremiumCHF: lead.MonthlyPremiumCHF,
			AnnualPremiumCHF:  lead.AnnualPremiumCHF,
			Canton:            normalize.CantonDisplayName(lead.Canton),
		},
	}, nil
}

func (s *Service) buildLead(ctx context.Context, req dto.LeadRequest) (*domain.Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, utils.ValidationError(err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, constants.ErrInvalidEmail
	}

	canton, err := params.Canton(strings.ToUpper(strings.TrimSpace(req.Canton)))
	if err != nil {
		return nil, err
	}
	ageBand, err := params.AgeBand(req.AgeBand)
	if err != nil {
		return nil, err
	}
	if err := params.FranchiseValue(*req.FranchiseCHF); err != nil {
		return nil, err
	}
	model := domain.ModelStandard
	if req.ModelType != "" {
		if model, err = params.ModelType(req.ModelType); err != nil {
			return nil, err
		}
	}

	insurerID := normalize.InsurerID(req.InsurerID)
	insurerName := strings.TrimSpace(req.InsurerName)
	if insurerName == "" {
		insurerName = normalize.InsurerName(ctx, insurerID)
	}

	monthly := decimal.NewFromFloat(req.MonthlyPremiumCHF).Round(2)

	return &domain.Lead{
		ID:                uuid.NewString(),
		Email:             email,
		Name:              strings.TrimSpace(req.Name),
		Phone:             optional(req.Phone),
		InsurerID:         insurerID,
		InsurerName:       insurerName,
		MonthlyPremiumCHF: monthly.InexactFloat64(),
		AnnualPremiumCHF:  monthly.Mul(decimal.NewFromInt(12)).Round(2).InexactFloat64(),
		Canton:            canton,
		AgeBand:           ageBand,
		FranchiseCHF:      *req.FranchiseCHF,
		ModelType:         model,
		AccidentCovered:   req.AccidentCovered == nil || *req.AccidentCovered,
		Message:           optional(req.Message),
		Source:            leadSource,
		Status:            leadStatus,
	}, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
