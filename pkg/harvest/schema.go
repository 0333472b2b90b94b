package harvest

import (
	"strings"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/convert"
	"github.com/agentstation/harvester/pkg/errors"
)

// Schema normalizes and validates datasets before they are written.
type Schema struct {
	FallbackLanguage string
	FallbackLicense  string
	FallbackTheme    string
}

// DefaultSchema returns the schema with the package defaults.
func DefaultSchema() *Schema {
	return &Schema{
		FallbackLanguage: constants.DefaultLanguage,
		FallbackLicense:  constants.DefaultLicenseID,
		FallbackTheme:    constants.DefaultTheme,
	}
}

// Apply normalizes ds in place. Required fields are defaulted where a
// default exists; dates are normalized to day/month/year. The first
// violation is returned as a ValidationError.
func (s *Schema) Apply(ds *catalog.Dataset) error {
	if strings.TrimSpace(ds.Title) == "" {
		return errors.NewValidationError("title", ds.Title, "missing value")
	}
	if ds.Name == "" {
		return errors.NewValidationError("name", ds.Name, "missing value")
	}
	if len(ds.Name) > constants.MaxNameLength {
		return errors.NewValidationError("name", ds.Name, "name is too long")
	}

	for i, t := range ds.Tags {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return errors.NewValidationError("tags", i, "tag name must not be empty")
		}
		ds.Tags[i].Name = name
	}

	if strings.TrimSpace(ds.Language) == "" {
		ds.Language = s.FallbackLanguage
	}
	if strings.TrimSpace(ds.LicenseID) == "" {
		ds.LicenseID = s.FallbackLicense
	}
	if strings.TrimSpace(ds.ThemePrimary) == "" {
		ds.ThemePrimary = s.FallbackTheme
	}
	theme, ok := convert.LookupTheme(ds.ThemePrimary)
	if !ok {
		return errors.NewValidationError("theme-primary", ds.ThemePrimary, "unknown theme")
	}
	ds.ThemePrimary = theme

	if strings.TrimSpace(ds.DateReleased) == "" {
		return errors.NewValidationError("date_released", ds.DateReleased, "missing value")
	}
	released, err := convert.FormatDate(ds.DateReleased)
	if err != nil {
		return errors.NewValidationError("date_released", ds.DateReleased, "invalid date")
	}
	ds.DateReleased = released

	optional := map[string]*string{
		"date_updated":           &ds.DateUpdated,
		"temporal_coverage-from": &ds.TemporalFrom,
		"temporal_coverage-to":   &ds.TemporalTo,
	}
	for field, d := range optional {
		if strings.TrimSpace(*d) == "" {
			*d = ""
			continue
		}
		v, err := convert.FormatDate(*d)
		if err != nil {
			return errors.NewValidationError(field, *d, "invalid date")
		}
		*d = v
	}
	return nil
}
