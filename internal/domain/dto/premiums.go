// Package dto holds the request and response bodies of the premium API.
package dto

import (
	"github.com/ougirez/premiums/internal/aggregate"
	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/params"
)

type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Docs       string `json:"docs"`
	Timestamp  string `json:"timestamp"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type MetaResponse struct {
	Current    domain.DataSource `json:"current"`
	APIVersion string            `json:"api_version"`
}

type RegionLookupResponse struct {
	PLZ          string `json:"plz"`
	Canton       string `json:"canton"`
	CantonName   string `json:"canton_name"`
	Municipality string `json:"municipality"`
	RegionCode   string `json:"region_code"`
	RegionName   string `json:"region_name"`
}

// QuoteRequest carries the raw query values; validation happens in the service.
type QuoteRequest struct {
	Canton          string `query:"canton"`
	AgeBand         string `query:"age_band"`
	FranchiseCHF    string `query:"franchise_chf"`
	AccidentCovered string `query:"accident_covered"`
	ModelType       string `query:"model_type"`
	Limit           string `query:"limit"`
}

type QuoteQuery struct {
	Canton          string `json:"canton"`
	AgeBand         string `json:"age_band"`
	FranchiseCHF    int    `json:"franchise_chf"`
	AccidentCovered bool   `json:"accident_covered"`
	ModelType       string `json:"model_type,omitempty"`
}

type QuoteResult struct {
	InsurerID         string  `json:"insurer_id"`
	InsurerName       string  `json:"insurer_name"`
	MonthlyPremiumCHF float64 `json:"monthly_premium_chf"`
	AnnualPremiumCHF  float64 `json:"annual_premium_chf"`
	ModelType         string  `json:"model_type"`
	Canton            string  `json:"canton"`
	Region            string  `json:"region"`
	TariffName        *string `json:"tariff_name,omitempty"`
}

type QuoteResponse struct {
	ChartURL   string               `json:"chart_url,omitempty"`
	Query      QuoteQuery           `json:"query"`
	Results    []QuoteResult        `json:"results"`
	Count      int                  `json:"count"`
	Statistics aggregate.Statistics `json:"statistics"`
	Source     domain.DataSource    `json:"source"`
	Disclaimer string               `json:"disclaimer"`
}

type CheapestRequest struct {
	Canton  string `query:"canton"`
	Profile string `query:"profile"`
	Limit   string `query:"limit"`
}

type Recommendation struct {
	Rank              int     `json:"rank"`
	InsurerID         string  `json:"insurer_id"`
	InsurerName       string  `json:"insurer_name"`
	ModelType         string  `json:"model_type"`
	MonthlyPremiumCHF float64 `json:"monthly_premium_chf"`
	AnnualPremiumCHF  float64 `json:"annual_premium_chf"`
	SavingsVsAverage  float64 `json:"savings_vs_average"`
	SavingsPercentage float64 `json:"savings_percentage"`
	TariffName        *string `json:"tariff_name,omitempty"`
}

type CheapestStatistics struct {
	AveragePremium float64 `json:"average_premium"`
	MedianPremium  float64 `json:"median_premium"`
	TotalOptions   int     `json:"total_options"`
}

type CheapestResponse struct {
	ChartURL        string             `json:"chart_url,omitempty"`
	Profile         params.Profile     `json:"profile"`
	Canton          string             `json:"canton"`
	Recommendations []Recommendation   `json:"recommendations"`
	Statistics      CheapestStatistics `json:"statistics"`
	Source          domain.DataSource  `json:"source"`
	Disclaimer      string             `json:"disclaimer"`
}

type CompareOption struct {
	InsurerID    string `json:"insurer_id" validate:"required"`
	ModelType    string `json:"model_type" validate:"required"`
	FranchiseCHF int    `json:"franchise_chf"`
}

type CompareRequest struct {
	Options    []CompareOption `json:"options" validate:"dive"`
	Canton     string          `json:"canton"`
	ForProfile string          `json:"for_profile"`
}

type CompareEntry struct {
	InsurerID              string  `json:"insurer_id"`
	InsurerName            string  `json:"insurer_name"`
	ModelType              string  `json:"model_type"`
	FranchiseCHF           int     `json:"franchise_chf"`
	MonthlyPremiumCHF      float64 `json:"monthly_premium_chf"`
	AnnualPremiumCHF       float64 `json:"annual_premium_chf"`
	DifferenceFromCheapest float64 `json:"difference_from_cheapest"`
	PercentageFromCheapest float64 `json:"percentage_from_cheapest"`
}

type PriceRef struct {
	InsurerID         string  `json:"insurer_id"`
	MonthlyPremiumCHF float64 `json:"monthly_premium_chf"`
}

type CompareResponse struct {
	ChartURL      string            `json:"chart_url,omitempty"`
	Comparison    []CompareEntry    `json:"comparison"`
	Cheapest      PriceRef          `json:"cheapest"`
	MostExpensive PriceRef          `json:"most_expensive"`
	Source        domain.DataSource `json:"source"`
	Disclaimer    string            `json:"disclaimer"`
}

type TimelineRequest struct {
	InsurerID       string `query:"insurer_id"`
	Canton          string `query:"canton"`
	Profile         string `query:"profile"`
	FranchiseCHF    string `query:"franchise_chf"`
	AccidentCovered string `query:"accident_covered"`
	ModelType       string `query:"model_type"`
	StartYear       string `query:"start_year"`
	EndYear         string `query:"end_year"`
}

type InsurerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TimelineResponse struct {
	Success    bool                  `json:"success"`
	ChartURL   *string               `json:"chart_url"`
	Insurer    InsurerRef            `json:"insurer"`
	Canton     string                `json:"canton"`
	Profile    string                `json:"profile"`
	Period     string                `json:"period"`
	Timeline   []aggregate.YearValue `json:"timeline"`
	Statistics aggregate.Change      `json:"statistics"`
	Trend      *aggregate.Trend      `json:"trend"`
	Source     string                `json:"source"`
}

type InflationRequest struct {
	Canton          string `query:"canton"`
	AgeBand         string `query:"age_band"`
	FranchiseCHF    string `query:"franchise_chf"`
	ModelType       string `query:"model_type"`
	AccidentCovered string `query:"accident_covered"`
	StartYear       string `query:"start_year"`
	EndYear         string `query:"end_year"`
}

type InflationProfile struct {
	AgeBand         string `json:"age_band"`
	FranchiseCHF    int    `json:"franchise_chf"`
	ModelType       string `json:"model_type"`
	AccidentCovered bool   `json:"accident_covered"`
}

type InflationStatistics struct {
	AvgYearlyInflation float64 `json:"avg_yearly_inflation"`
	TotalInflation     float64 `json:"total_inflation"`
	YearsAnalyzed      int     `json:"years_analyzed"`
}

type InflationResponse struct {
	Success    bool                      `json:"success"`
	ChartURL   *string                   `json:"chart_url"`
	Canton     string                    `json:"canton"`
	Profile    InflationProfile          `json:"profile"`
	Period     string                    `json:"period"`
	Statistics InflationStatistics       `json:"statistics"`
	YearlyData []aggregate.InflationYear `json:"yearly_data"`
	Source     string                    `json:"source"`
}

type CompareYearsRequest struct {
	Year1   string `query:"year1"`
	Year2   string `query:"year2"`
	Canton  string `query:"canton"`
	Profile string `query:"profile"`
	Limit   string `query:"limit"`
}

type YearsComparisonQuery struct {
	Year1   int    `json:"year1"`
	Year2   int    `json:"year2"`
	Canton  string `json:"canton"`
	Profile string `json:"profile"`
}

type YearsComparisonStatistics struct {
	AvgChangePercent float64 `json:"avg_change_percent"`
	InsurersCompared int     `json:"insurers_compared"`
}

type YearsComparisonEntry struct {
	Insurer         InsurerRef `json:"insurer"`
	ModelType       string     `json:"model_type"`
	Year1PremiumCHF float64    `json:"year1_premium_chf"`
	Year2PremiumCHF float64    `json:"year2_premium_chf"`
	ChangeCHF       float64    `json:"change_chf"`
	ChangePercent   float64    `json:"change_percent"`
}

type CompareYearsResponse struct {
	Success    bool                      `json:"success"`
	Comparison YearsComparisonQuery      `json:"comparison"`
	Statistics YearsComparisonStatistics `json:"statistics"`
	Data       []YearsComparisonEntry    `json:"data"`
	Source     string                    `json:"source"`
}

type RankingRequest struct {
	Canton  string `query:"canton"`
	Profile string `query:"profile"`
	Years   string `query:"years"`
	Top     string `query:"top"`
}

type RankingQuery struct {
	Canton  string `json:"canton"`
	Profile string `json:"profile"`
	Years   []int  `json:"years"`
	Top     int    `json:"top"`
}

type RankEntry struct {
	Rank       int     `json:"rank"`
	Insurer    string  `json:"insurer"`
	Model      string  `json:"model"`
	PremiumCHF float64 `json:"premium_chf"`
}

type RankingInsights struct {
	ConsistentPerformers []string `json:"consistent_performers"`
	YearsAnalyzed        int      `json:"years_analyzed"`
	Interpretation       string   `json:"interpretation"`
}

type RankingResponse struct {
	Success  bool                `json:"success"`
	Query    RankingQuery        `json:"query"`
	Rankings map[int][]RankEntry `json:"rankings"`
	Insights RankingInsights     `json:"insights"`
	Source   string              `json:"source"`
}

type LeadRequest struct {
	Email             string  `json:"email" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	Phone             string  `json:"phone"`
	InsurerID         string  `json:"insurer_id" validate:"required"`
	InsurerName       string  `json:"insurer_name"`
	MonthlyPremiumCHF float64 `json:"monthly_premium_chf" validate:"required,gt=0"`
	Canton            string  `json:"canton" validate:"required"`
	AgeBand           string  `json:"age_band" validate:"required"`
	FranchiseCHF      *int    `json:"franchise_chf" validate:"required"`
	ModelType         string  `json:"model_type"`
	AccidentCovered   *bool   `json:"accident_covered"`
	Message           string  `json:"message"`
}

type LeadOffer struct {
	Insurer           string  `json:"insurer"`
	MonthlyPremiumCHF float64 `json:"monthly_premium_chf"`
	AnnualPremiumCHF  float64 `json:"annual_premium_chf"`
	Canton            string  `json:"canton"`
}

type LeadResponse struct {
	Success   bool      `json:"success"`
	LeadID    string    `json:"lead_id"`
	EmailSent bool      `json:"email_sent"`
	Message   string    `json:"message"`
	Offer     LeadOffer `json:"offer"`
}

type ImportRequest struct {
	Years   []int `json:"years" validate:"omitempty,dive,gte=2011,lte=2100"`
	Migrate bool  `json:"migrate"`
}

type ImportResponse struct {
	Success bool             `json:"success"`
	Years   []ImportYearStat `json:"years"`
}

type ImportYearStat struct {
	Year       int    `json:"year"`
	Valid      int    `json:"valid"`
	Invalid    int    `json:"invalid"`
	Duplicates int    `json:"duplicates"`
	Upserted   int64  `json:"upserted"`
	Error      string `json:"error,omitempty"`
}
