package patient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Gender is the stored gender code. Only two codes exist; anything that is
// not recognisably male is stored as female, which is how existing rows were
// written.
type Gender int16

const (
	GenderMale   Gender = 1
	GenderFemale Gender = 2

	DefaultGender = GenderFemale
)

var genderCodes = map[string]Gender{
	"male":   GenderMale,
	"female": GenderFemale,
}

// ParseGender maps free-form input to a code, falling back to DefaultGender.
func ParseGender(s string) Gender {
	if g, ok := LookupGender(s); ok {
		return g
	}
	return DefaultGender
}

// LookupGender accepts a code name or its numeric value.
func LookupGender(s string) (Gender, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if g, ok := genderCodes[s]; ok {
		return g, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		g := Gender(n)
		if g == GenderMale || g == GenderFemale {
			return g, true
		}
	}
	return 0, false
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unknown"
	}
}

func (g Gender) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// UnmarshalJSON accepts "male"/"female" or the numeric code.
func (g *Gender) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("gender: %w", err)
		}
		s = strconv.Itoa(n)
	}
	*g = ParseGender(s)
	return nil
}

const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, "02-01-2006", time.RFC3339}

// Date is a calendar date, always written as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate accepts YYYY-MM-DD, DD-MM-YYYY or an RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Patient is a registered patient. FullName is computed by the query.
type Patient struct {
	ID          int             `json:"id"`
	LastName    string          `json:"last_name"`
	FirstName   string          `json:"first_name"`
	MiddleName  *string         `json:"middle_name"`
	FullName    string          `json:"full_name"`
	Identifier  json.RawMessage `json:"identifier"`
	PhoneNumber *string         `json:"phone_number"`
	URL         *string         `json:"url"`
	BirthDate   *Date           `json:"birth_date"`
	Gender      *Gender         `json:"gender"`
}

// CreateInput is the registration body. birth_date and gender are kept as
// strings so that the accepted formats are decided in one place.
type CreateInput struct {
	LastName    string          `json:"last_name" validate:"required"`
	FirstName   string          `json:"first_name" validate:"required"`
	MiddleName  *string         `json:"middle_name"`
	Identifier  json.RawMessage `json:"identifier"`
	PhoneNumber *string         `json:"phone_number"`
	URL         *string         `json:"url"`
	BirthDate   string          `json:"birth_date"`
	Gender      string          `json:"gender"`
}

// UpdateInput carries only the fields present in the request.
type UpdateInput struct {
	LastName    *string         `json:"last_name"`
	FirstName   *string         `json:"first_name"`
	MiddleName  *string         `json:"middle_name"`
	Identifier  json.RawMessage `json:"identifier"`
	PhoneNumber *string         `json:"phone_number"`
	URL         *string         `json:"url"`
	BirthDate   *string         `json:"birth_date"`
	Gender      *string         `json:"gender"`
}

// Patch is a validated UpdateInput.
type Patch struct {
	LastName    *string
	FirstName   *string
	MiddleName  *string
	Identifier  json.RawMessage
	PhoneNumber *string
	URL         *string
	BirthDate   *Date
	Gender      *Gender
}

// Filter narrows a patient listing. Name filters are substring matches.
type Filter struct {
	FirstName  string
	LastName   string
	MiddleName string
	Gender     *Gender
}

// Values returns the filters in query-string form for pagination links.
func (f Filter) Values() map[string]string {
	v := map[string]string{
		"firstname":  f.FirstName,
		"lastname":   f.LastName,
		"middlename": f.MiddleName,
	}
	if f.Gender != nil {
		v["gender"] = f.Gender.String()
	}
	return v
}
