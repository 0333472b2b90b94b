package convert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/logging"
)

// License is one entry of the curated license table.
type License struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
	URL  string `json:"url" yaml:"url"`
}

// Licenses is the curated license table, in match priority order.
var Licenses = []License{
	{Name: "Creative Commons Zero 1.0 Universal", ID: "cc-zero", URL: "http://creativecommons.org/publicdomain/zero/1.0/"},
	{Name: "Creative Commons Attribution 4.0 International License", ID: "cc-by", URL: "http://creativecommons.org/licenses/by/4.0/"},
	{Name: "Irish PSI General Licence No.: 2005/08/01", ID: "psi", URL: "http://psi.gov.ie/"},
	{Name: "Open Data Commons Public Domain Dedication and License", ID: "pddl", URL: "http://opendatacommons.org/licenses/pddl/"},
	{Name: "Open Data Commons Attribution License", ID: "odc-by", URL: "http://opendatacommons.org/licenses/by/"},
	{Name: "Open Data Commons Open Database License", ID: "odc-odbl", URL: "http://opendatacommons.org/licenses/odbl/"},
	{Name: "Other License (Attribution)", ID: "other-at", URL: ""},
	{Name: "Copyright", ID: "copyright", URL: ""},
}

// MatchLicense returns the id of the first license whose URL occurs in text.
func MatchLicense(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, l := range Licenses {
		if l.URL != "" && strings.Contains(text, l.URL) {
			return l.ID, true
		}
	}
	return "", false
}

// LicenseResolver maps a license reference to a license id. Resolution is
// best-effort: implementations return constants.DefaultLicenseID on any
// failure and never return an error.
type LicenseResolver interface {
	Resolve(ctx context.Context, ref string) string
}

// noLicenseLookup only matches references that name a known URL directly.
type noLicenseLookup struct{}

func (noLicenseLookup) Resolve(_ context.Context, ref string) string {
	if id, ok := MatchLicense(ref); ok {
		return id
	}
	return constants.DefaultLicenseID
}

// Cache stores resolved license ids by reference.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// HTTPLicenseResolver fetches a license document and matches the curated
// license URLs against its "description" field.
type HTTPLicenseResolver struct {
	client  *http.Client
	timeout time.Duration
	cache   Cache
}

// NewHTTPLicenseResolver creates a resolver. client and cache may be nil.
func NewHTTPLicenseResolver(client *http.Client, timeout time.Duration, cache Cache) *HTTPLicenseResolver {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = constants.LicenseLookupTimeout
	}
	return &HTTPLicenseResolver{client: client, timeout: timeout, cache: cache}
}

// licenseDocument is the JSON shape served by ArcGIS license endpoints.
type licenseDocument struct {
	Description string `json:"description"`
}

// Resolve implements LicenseResolver.
func (r *HTTPLicenseResolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if id, ok := MatchLicense(ref); ok {
		return id
	}
	if !strings.HasPrefix(strings.ToLower(ref), "http") {
		return constants.DefaultLicenseID
	}
	if r.cache != nil {
		if id, ok := r.cache.Get(ref); ok {
			return id
		}
	}

	id, err := r.lookup(ctx, ref)
	if err != nil {
		logging.FromContext(ctx).Debug().Err(err).Str("license", ref).Msg("License lookup failed")
		id = constants.DefaultLicenseID
	}
	// Failures are cached too so a dead license URL is not refetched for
	// every dataset of the feed.
	if r.cache != nil {
		r.cache.Set(ref, id)
	}
	return id
}

func (r *HTTPLicenseResolver) lookup(ctx context.Context, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &httpStatusError{status: resp.Status}
	}

	var doc licenseDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, constants.MaxFileSizeBytes)).Decode(&doc); err != nil {
		return "", err
	}
	if id, ok := MatchLicense(doc.Description); ok {
		return id, nil
	}
	return constants.DefaultLicenseID, nil
}

type httpStatusError struct{ status string }

func (e *httpStatusError) Error() string { return "license server responded with " + e.status }
