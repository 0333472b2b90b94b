package convert

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/errors"
)

// options holds converter configuration.
type options struct {
	fallbackPublisher string
	fallbackLanguage  string
	fallbackTheme     string
	licenses          LicenseResolver
}

// Option configures a Converter.
type Option func(*options) error

func defaultOptions() *options {
	return &options{
		fallbackPublisher: "Unknown Publisher",
		fallbackLanguage:  constants.DefaultLanguage,
		fallbackTheme:     constants.DefaultTheme,
		licenses:          noLicenseLookup{},
	}
}

// WithFallbackPublisher sets the publisher used for records without one.
func WithFallbackPublisher(name string) Option {
	return func(o *options) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.NewValidationError("fallback_publisher_name", name, "cannot be empty")
		}
		o.fallbackPublisher = name
		return nil
	}
}

// WithFallbackLanguage sets the language used for records without one.
func WithFallbackLanguage(lang string) Option {
	return func(o *options) error {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return errors.NewValidationError("fallback_language", lang, "cannot be empty")
		}
		o.fallbackLanguage = lang
		return nil
	}
}

// WithFallbackTheme sets the primary theme used when no keyword matches the
// theme vocabulary. The theme must be part of the vocabulary.
func WithFallbackTheme(theme string) Option {
	return func(o *options) error {
		canonical, ok := LookupTheme(theme)
		if !ok {
			return errors.NewValidationError("fallback_theme", theme,
				"must be one of "+strings.Join(Themes, ", "))
		}
		o.fallbackTheme = canonical
		return nil
	}
}

// WithLicenseResolver sets the license resolver. Without one every record
// gets the "other" license unless its reference names a known license URL.
func WithLicenseResolver(r LicenseResolver) Option {
	return func(o *options) error {
		if r == nil {
			return errors.NewValidationError("license_resolver", nil, "cannot be nil")
		}
		o.licenses = r
		return nil
	}
}

// LookupTheme returns the vocabulary spelling of theme, matched
// case-insensitively.
func LookupTheme(theme string) (string, bool) {
	// Casers carry state and are not safe for concurrent use.
	t := cases.Title(language.English).String(strings.TrimSpace(theme))
	for _, v := range Themes {
		if v == t {
			return v, true
		}
	}
	return "", false
}
