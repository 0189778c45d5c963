package params

// Query holds the raw wire values. An empty string means the parameter was absent.
type Query struct {
	Canton          string
	Profile         string
	AgeBand         string
	Franchise       string
	AccidentCovered string
	ModelType       string
}

// Defaults is the per-endpoint fallback policy applied before validation.
type Defaults struct {
	// Profile is used when the query names none. Empty means no bundle.
	Profile string
	// AgeBand and Franchise apply when neither the query nor a profile set them.
	AgeBand   string
	Franchise *int
	// AccidentCovered, when set, replaces the profile's value as the default.
	AccidentCovered *bool
	ModelType       string
}

type Criteria struct {
	Canton          string
	Profile         *Profile
	AgeBand         string
	FranchiseCHF    int
	AccidentCovered bool
	ModelType       string
}

// Resolve applies the profile bundle, lets explicit fields override it, and
// validates the result. Missing required dimensions are reported as invalid.
func Resolve(q Query, d Defaults) (Criteria, error) {
	var c Criteria

	canton, err := Canton(q.Canton)
	if err != nil {
		return Criteria{}, err
	}
	c.Canton = canton

	profileName := q.Profile
	if profileName == "" {
		profileName = d.Profile
	}

	ageBand := d.AgeBand
	franchise := d.Franchise
	accident := false

	if profileName != "" {
		p, err := LookupProfile(profileName)
		if err != nil {
			return Criteria{}, err
		}
		c.Profile = &p
		ageBand = p.AgeBand
		franchise = &p.FranchiseCHF
		accident = p.AccidentCovered
	}

	if q.AgeBand != "" {
		ageBand = q.AgeBand
	}
	if c.AgeBand, err = AgeBand(ageBand); err != nil {
		return Criteria{}, err
	}

	if q.Franchise != "" {
		value, err := Franchise(q.Franchise)
		if err != nil {
			return Criteria{}, err
		}
		franchise = &value
	}
	if franchise == nil {
		return Criteria{}, ErrInvalidFranchise
	}
	if err := FranchiseValue(*franchise); err != nil {
		return Criteria{}, err
	}
	c.FranchiseCHF = *franchise

	if d.AccidentCovered != nil {
		accident = *d.AccidentCovered
	}
	c.AccidentCovered = Bool(q.AccidentCovered, accident)

	c.ModelType = d.ModelType
	if q.ModelType != "" {
		if c.ModelType, err = ModelType(q.ModelType); err != nil {
			return Criteria{}, err
		}
	}

	return c, nil
}

func Ptr[T any](v T) *T {
	return &v
}
