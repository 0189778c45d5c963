package store

import (
	"context"
	"fmt"

	"github.com/ougirez/premiums/internal/domain"
)

var leadColumns = []string{
	"id",
	"email",
	"name",
	"phone",
	"insurer_id",
	"insurer_name",
	"monthly_premium_chf",
	"annual_premium_chf",
	"canton",
	"age_band",
	"franchise_chf",
	"model_type",
	"accident_covered",
	"message",
	"source",
	"status",
	"email_sent",
}

func (s *store) InsertLead(ctx context.Context, lead *domain.Lead) error {
	query := builder().Insert(tableLeads).
		Columns(leadColumns...).
		Values(
			lead.ID,
			lead.Email,
			lead.Name,
			lead.Phone,
			lead.InsurerID,
			lead.InsurerName,
			lead.MonthlyPremiumCHF,
			lead.AnnualPremiumCHF,
			lead.Canton,
			lead.AgeBand,
			lead.FranchiseCHF,
			lead.ModelType,
			lead.AccidentCovered,
			lead.Message,
			lead.Source,
			lead.Status,
			lead.EmailSent,
		).
		Suffix("RETURNING created_at")

	if err := s.pool.Getx(ctx, &lead.CreatedAt, query); err != nil {
		return fmt.Errorf("store.InsertLead: %w", err)
	}

	return nil
}
