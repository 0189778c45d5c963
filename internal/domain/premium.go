package domain

import "time"

type Year = int

const (
	AgeBandChild      = "child"
	AgeBandYoungAdult = "young_adult"
	AgeBandAdult      = "adult"
)

const (
	ModelStandard     = "standard"
	ModelHMO          = "hmo"
	ModelTelmed       = "telmed"
	ModelFamilyDoctor = "family_doctor"
	ModelDiverse      = "diverse"
)

// Premium is one row of the premiums table. The composite key is everything but
// the id, the premium and the tariff name.
type Premium struct {
	ID                int64   `db:"id" json:"-"`
	Year              Year    `db:"year" json:"year"`
	InsurerID         string  `db:"insurer_id" json:"insurer_id"`
	Canton            string  `db:"canton" json:"canton"`
	RegionCode        string  `db:"region_code" json:"region_code"`
	AgeBand           string  `db:"age_band" json:"age_band"`
	FranchiseCHF      int     `db:"franchise_chf" json:"franchise_chf"`
	AccidentCovered   bool    `db:"accident_covered" json:"accident_covered"`
	ModelType         string  `db:"model_type" json:"model_type"`
	MonthlyPremiumCHF float64 `db:"monthly_premium_chf" json:"monthly_premium_chf"`
	TariffName        *string `db:"tariff_name" json:"tariff_name,omitempty"`

	// InsurerName is filled from the insurers table on reads only.
	InsurerName *string `db:"insurer_name" json:"-"`
}

// Key identifies a premium independent of its value.
type Key struct {
	Year            Year
	InsurerID       string
	Canton          string
	RegionCode      string
	AgeBand         string
	FranchiseCHF    int
	AccidentCovered bool
	ModelType       string
}

func (p *Premium) Key() Key {
	return Key{
		Year:            p.Year,
		InsurerID:       p.InsurerID,
		Canton:          p.Canton,
		RegionCode:      p.RegionCode,
		AgeBand:         p.AgeBand,
		FranchiseCHF:    p.FranchiseCHF,
		AccidentCovered: p.AccidentCovered,
		ModelType:       p.ModelType,
	}
}

type Insurer struct {
	InsurerID string  `db:"insurer_id" json:"insurer_id"`
	Name      *string `db:"name" json:"name,omitempty"`
	ShortName *string `db:"short_name" json:"short_name,omitempty"`
	IsActive  bool    `db:"is_active" json:"is_active"`
}

type Location struct {
	ZipCode    string `db:"zip_code"`
	Canton     string `db:"canton"`
	City       string `db:"city"`
	RegionCode string `db:"region_code"`
}

// YearPoint is a single yearly observation, optionally tagged with its premium region.
type YearPoint struct {
	Year       Year    `db:"year"`
	Value      float64 `db:"monthly_premium_chf"`
	RegionCode string  `db:"region_code"`
}

type Lead struct {
	ID                string    `db:"id"`
	Email             string    `db:"email"`
	Name              string    `db:"name"`
	Phone             *string   `db:"phone"`
	InsurerID         string    `db:"insurer_id"`
	InsurerName       string    `db:"insurer_name"`
	MonthlyPremiumCHF float64   `db:"monthly_premium_chf"`
	AnnualPremiumCHF  float64   `db:"annual_premium_chf"`
	Canton            string    `db:"canton"`
	AgeBand           string    `db:"age_band"`
	FranchiseCHF      int       `db:"franchise_chf"`
	ModelType         string    `db:"model_type"`
	AccidentCovered   bool      `db:"accident_covered"`
	Message           *string   `db:"message"`
	Source            string    `db:"source"`
	Status            string    `db:"status"`
	EmailSent         bool      `db:"email_sent"`
	CreatedAt         time.Time `db:"created_at"`
}

// DataSource describes where the premium data comes from.
type DataSource struct {
	Name        string `json:"name"`
	Publisher   string `json:"publisher"`
	License     string `json:"license,omitempty"`
	Version     string `json:"version"`
	URL         string `json:"url,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
	Records     *int64 `json:"records,omitempty"`
}

var CurrentSource = DataSource{
	Name:      "BAG Priminfo 2026",
	Publisher: "Bundesamt für Gesundheit (BAG)",
	License:   "Freie Nutzung. Quellenangabe ist Pflicht.",
	Version:   "2026-09-23",
	URL:       "https://opendata.swiss/de/dataset/health-insurance-premiums",
}

const HistoricalSource = "BAG Priminfo Historical Data"
