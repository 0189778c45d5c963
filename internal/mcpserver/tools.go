package mcpserver

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/normalize"
	"github.com/ougirez/premiums/internal/params"
)

// The HTTP quote requires these, the tool falls back to them.
const (
	quoteAgeBand   = "adult"
	quoteFranchise = 2500
)

func (s *Server) registerTools() {
	cantons := normalize.CantonCodes()
	profiles := params.ProfileNames()

	s.mcp.AddTool(mcp.NewTool("lookup_region",
		mcp.WithDescription("Findet Kanton und Prämien-Region für eine Schweizer Postleitzahl. Nutze dies ZUERST, wenn der Benutzer nur seine PLZ nennt."),
		mcp.WithString("plz", mcp.Required(), mcp.Description(`Schweizer Postleitzahl (4 Ziffern, z.B. "8001")`)),
	), handler("lookup_region", s.lookupRegion))

	s.mcp.AddTool(mcp.NewTool("get_premium_quote",
		mcp.WithDescription("Sucht aktuelle Krankenkassen-Prämien. Gibt die günstigsten Angebote zurück, sortiert nach Preis. Inkl. Statistiken und Vergleichschart."),
		mcp.WithString("canton", mcp.Required(), mcp.Description("Kanton (2-Buchstaben-Code: ZH, BE, GE, etc.)"), mcp.Enum(cantons...)),
		mcp.WithString("age_band", mcp.Description("Altersgruppe"), mcp.Enum(params.AgeBands...), mcp.DefaultString(quoteAgeBand)),
		mcp.WithNumber("franchise_chf", mcp.Description("Franchise in CHF"), mcp.DefaultNumber(quoteFranchise)),
		mcp.WithBoolean("accident_covered", mcp.Description("Mit Unfallversicherung. Angestellte sind meist über den Arbeitgeber versichert, dann false."), mcp.DefaultBool(true)),
		mcp.WithString("model_type", mcp.Description("Versicherungsmodell. standard = freie Arztwahl, hmo/telmed = günstiger mit Einschränkungen"), mcp.Enum(params.ModelTypes...)),
		mcp.WithNumber("limit", mcp.Description("Anzahl Resultate (Standard: 10, Max: 100)"), mcp.DefaultNumber(params.DefaultLimit)),
	), handler("get_premium_quote", s.quote))

	s.mcp.AddTool(mcp.NewTool("get_cheapest_premiums",
		mcp.WithDescription(`Findet die günstigsten Versicherungen für vordefinierte Profile (z.B. "single_adult", "family_2kids").`),
		mcp.WithString("canton", mcp.Required(), mcp.Description("Kanton (2-Buchstaben-Code)"), mcp.Enum(cantons...)),
		mcp.WithString("profile", mcp.Required(), mcp.Description("Vordefiniertes Profil"), mcp.Enum(profiles...)),
		mcp.WithNumber("limit", mcp.Description("Anzahl Top-Ergebnisse (Standard: 5)"), mcp.DefaultNumber(5)),
	), handler("get_cheapest_premiums", s.cheapest))

	s.mcp.AddTool(mcp.NewTool("get_premium_timeline",
		mcp.WithDescription(`Zeigt die Preisentwicklung einer Krankenkasse über mehrere Jahre. Perfekt für: "Wie hat sich Assura entwickelt?"`),
		mcp.WithString("insurer_id", mcp.Required(), mcp.Description(`Versicherer-ID oder Name (z.B. "1318", "Assura", "CSS")`)),
		mcp.WithString("canton", mcp.Required(), mcp.Description("Kanton"), mcp.Enum(cantons...)),
		mcp.WithString("profile", mcp.Description("Profil für konsistente Vergleichsbasis"), mcp.Enum(profiles...), mcp.DefaultString(params.DefaultProfile)),
		mcp.WithNumber("franchise_chf", mcp.Description("Franchise, überschreibt das Profil")),
		mcp.WithBoolean("accident_covered", mcp.Description("Unfalldeckung, überschreibt das Profil")),
		mcp.WithString("model_type", mcp.Description("Versicherungsmodell"), mcp.Enum(params.ModelTypes...), mcp.DefaultString("standard")),
		mcp.WithNumber("start_year", mcp.Description("Start-Jahr (min 2016)"), mcp.DefaultNumber(2016)),
		mcp.WithNumber("end_year", mcp.Description("End-Jahr"), mcp.DefaultNumber(2025)),
	), handler("get_premium_timeline", s.timeline))

	s.mcp.AddTool(mcp.NewTool("get_premium_inflation",
		mcp.WithDescription("Berechnet die jährliche Teuerung der Krankenkassenprämien für einen Kanton."),
		mcp.WithString("canton", mcp.Description("Kanton"), mcp.Enum(cantons...), mcp.DefaultString("ZH")),
		mcp.WithString("age_band", mcp.Description("Altersgruppe"), mcp.Enum(params.AgeBands...), mcp.DefaultString("adult")),
		mcp.WithNumber("franchise_chf", mcp.Description("Franchise"), mcp.DefaultNumber(2500)),
		mcp.WithBoolean("accident_covered", mcp.Description("Mit Unfalldeckung"), mcp.DefaultBool(true)),
		mcp.WithString("model_type", mcp.Description("Modell"), mcp.Enum(params.ModelTypes...), mcp.DefaultString("standard")),
		mcp.WithNumber("start_year", mcp.DefaultNumber(2016)),
		mcp.WithNumber("end_year", mcp.DefaultNumber(2025)),
	), handler("get_premium_inflation", s.inflation))

	s.mcp.AddTool(mcp.NewTool("compare_years",
		mcp.WithDescription("Vergleicht Prämien zwischen zwei Jahren. Zeigt welche Kassen teurer oder günstiger geworden sind."),
		mcp.WithNumber("year1", mcp.Description("Erstes Jahr"), mcp.DefaultNumber(2020)),
		mcp.WithNumber("year2", mcp.Description("Zweites Jahr"), mcp.DefaultNumber(2025)),
		mcp.WithString("canton", mcp.Enum(cantons...), mcp.DefaultString("ZH")),
		mcp.WithString("profile", mcp.Enum(profiles...), mcp.DefaultString(params.DefaultProfile)),
		mcp.WithNumber("limit", mcp.DefaultNumber(10)),
	), handler("compare_years", s.compareYears))

	s.mcp.AddTool(mcp.NewTool("get_premium_ranking",
		mcp.WithDescription(`Zeigt welche Kassen über die Jahre konstant günstig waren. Perfekt für: "Welche Kasse ist langfristig am besten?"`),
		mcp.WithString("canton", mcp.Enum(cantons...), mcp.DefaultString("ZH")),
		mcp.WithString("profile", mcp.Enum(profiles...), mcp.DefaultString(params.DefaultProfile)),
		mcp.WithString("years", mcp.Description(`Komma-getrennte Jahre (z.B. "2020,2023,2025")`), mcp.DefaultString("2020,2023,2025")),
		mcp.WithNumber("top", mcp.Description("Top N Kassen pro Jahr"), mcp.DefaultNumber(5)),
	), handler("get_premium_ranking", s.ranking))
}

func (s *Server) lookupRegion(ctx context.Context, req mcp.CallToolRequest) (*dto.RegionLookupResponse, error) {
	return s.premiums.LookupRegion(ctx, arg(req, "plz"))
}

func (s *Server) quote(ctx context.Context, req mcp.CallToolRequest) (*dto.QuoteResponse, error) {
	return s.premiums.Quote(ctx, dto.QuoteRequest{
		Canton:          arg(req, "canton"),
		AgeBand:         argOr(req, "age_band", quoteAgeBand),
		FranchiseCHF:    argOr(req, "franchise_chf", strconv.Itoa(quoteFranchise)),
		AccidentCovered: arg(req, "accident_covered"),
		ModelType:       arg(req, "model_type"),
		Limit:           arg(req, "limit"),
	})
}

func (s *Server) cheapest(ctx context.Context, req mcp.CallToolRequest) (*dto.CheapestResponse, error) {
	return s.premiums.Cheapest(ctx, dto.CheapestRequest{
		Canton:  arg(req, "canton"),
		Profile: arg(req, "profile"),
		Limit:   arg(req, "limit"),
	})
}

func (s *Server) timeline(ctx context.Context, req mcp.CallToolRequest) (*dto.TimelineResponse, error) {
	return s.premiums.Timeline(ctx, dto.TimelineRequest{
		InsurerID:       arg(req, "insurer_id"),
		Canton:          arg(req, "canton"),
		Profile:         arg(req, "profile"),
		FranchiseCHF:    arg(req, "franchise_chf"),
		AccidentCovered: arg(req, "accident_covered"),
		ModelType:       arg(req, "model_type"),
		StartYear:       arg(req, "start_year"),
		EndYear:         arg(req, "end_year"),
	})
}

func (s *Server) inflation(ctx context.Context, req mcp.CallToolRequest) (*dto.InflationResponse, error) {
	return s.premiums.Inflation(ctx, dto.InflationRequest{
		Canton:          arg(req, "canton"),
		AgeBand:         arg(req, "age_band"),
		FranchiseCHF:    arg(req, "franchise_chf"),
		ModelType:       arg(req, "model_type"),
		AccidentCovered: arg(req, "accident_covered"),
		StartYear:       arg(req, "start_year"),
		EndYear:         arg(req, "end_year"),
	})
}

func (s *Server) compareYears(ctx context.Context, req mcp.CallToolRequest) (*dto.CompareYearsResponse, error) {
	return s.premiums.CompareYears(ctx, dto.CompareYearsRequest{
		Year1:   arg(req, "year1"),
		Year2:   arg(req, "year2"),
		Canton:  arg(req, "canton"),
		Profile: arg(req, "profile"),
		Limit:   arg(req, "limit"),
	})
}

func (s *Server) ranking(ctx context.Context, req mcp.CallToolRequest) (*dto.RankingResponse, error) {
	return s.premiums.Ranking(ctx, dto.RankingRequest{
		Canton:  arg(req, "canton"),
		Profile: arg(req, "profile"),
		Years:   arg(req, "years"),
		Top:     arg(req, "top"),
	})
}
