// Package catalog defines the local catalog model that harvested records are
// converted into, and the narrow storage contract the harvester consumes.
// Storage engines live elsewhere; see internal/store.
package catalog

import (
	"strings"

	"github.com/agentstation/utc"
)

// Tag is a free-text keyword attached to a dataset.
type Tag struct {
	Name string `json:"name" yaml:"name"`
}

// Extra is an open-ended key/value pair stored alongside a dataset.
type Extra struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Contact holds the name, email and phone of a person or organization.
type Contact struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Resource is one downloadable file or service endpoint of a dataset.
type Resource struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Size        *int64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// Dataset is the local representation of a harvested dataset.
type Dataset struct {
	// Identification
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`       // Local dataset id (uuid)
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`   // URL slug, unique in the catalog
	GUID  string `json:"guid,omitempty" yaml:"guid,omitempty"`   // Remote identifier
	Title string `json:"title" yaml:"title"`                     // Display title
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"` // Free-text description
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`     // Landing page

	Tags []Tag `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Dates in the local day/month/year convention
	DateReleased string `json:"date_released,omitempty" yaml:"date_released,omitempty"`
	DateUpdated  string `json:"date_updated,omitempty" yaml:"date_updated,omitempty"`

	// Ownership and contacts
	OwnerOrg        string  `json:"owner_org,omitempty" yaml:"owner_org,omitempty"`               // Organization slug
	Publisher       Contact `json:"publisher" yaml:"publisher"`                                   // Publisher display name and contact
	PublisherTitle  string  `json:"publisher_title,omitempty" yaml:"publisher_title,omitempty"`   // Organization title when created lazily
	Contact         Contact `json:"contact" yaml:"contact"`                                       // Dataset contact point
	Maintainer      string  `json:"maintainer,omitempty" yaml:"maintainer,omitempty"`             // Fallback publisher name
	MaintainerEmail string  `json:"maintainer_email,omitempty" yaml:"maintainer_email,omitempty"` // Fallback publisher email

	// Classification
	LicenseID      string `json:"license_id,omitempty" yaml:"license_id,omitempty"`
	Language       string `json:"language,omitempty" yaml:"language,omitempty"` // Comma-separated
	ThemePrimary   string `json:"theme-primary,omitempty" yaml:"theme-primary,omitempty"`
	ThemeSecondary string `json:"theme-secondary,omitempty" yaml:"theme-secondary,omitempty"`
	CollectionName string `json:"collection-name,omitempty" yaml:"collection-name,omitempty"`

	// Coverage, all optional pass-through
	GeographicCoverage string `json:"geographic_coverage-other,omitempty" yaml:"geographic_coverage-other,omitempty"`
	TemporalFrom       string `json:"temporal_coverage-from,omitempty" yaml:"temporal_coverage-from,omitempty"`
	TemporalTo         string `json:"temporal_coverage-to,omitempty" yaml:"temporal_coverage-to,omitempty"`
	TemporalOther      string `json:"temporal_coverage-other,omitempty" yaml:"temporal_coverage-other,omitempty"`
	BBoxEast           string `json:"bbox-east,omitempty" yaml:"bbox-east,omitempty"`
	BBoxWest           string `json:"bbox-west,omitempty" yaml:"bbox-west,omitempty"`
	BBoxNorth          string `json:"bbox-north,omitempty" yaml:"bbox-north,omitempty"`
	BBoxSouth          string `json:"bbox-south,omitempty" yaml:"bbox-south,omitempty"`
	VerticalExtent     string `json:"vertical_extent,omitempty" yaml:"vertical_extent,omitempty"`
	ExtentGeometry     string `json:"extent_geometry,omitempty" yaml:"extent_geometry,omitempty"`

	Resources []Resource `json:"resources,omitempty" yaml:"resources,omitempty"`
	Extras    []Extra    `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// Extra returns the value of the extra with the given key.
func (d *Dataset) Extra(key string) (string, bool) {
	for _, e := range d.Extras {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// SetExtra sets or replaces an extra.
func (d *Dataset) SetExtra(key, value string) {
	for i := range d.Extras {
		if d.Extras[i].Key == key {
			d.Extras[i].Value = value
			return
		}
	}
	d.Extras = append(d.Extras, Extra{Key: key, Value: value})
}

// TagNames returns the tag names in order.
func (d *Dataset) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Languages splits the comma-separated language field.
func (d *Dataset) Languages() []string {
	if d.Language == "" {
		return nil
	}
	parts := strings.Split(d.Language, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Organization owns datasets. Organizations are created lazily the first
// time a dataset references them and are never deleted by the harvester.
type Organization struct {
	ID      string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string  `json:"name" yaml:"name"` // Slug
	Title   string  `json:"title" yaml:"title"`
	Contact Contact `json:"contact" yaml:"contact"`
}

// Identity maps a remote identifier to a local dataset for one source.
// Rows are append-only; at most one row per (source, identifier) is current.
type Identity struct {
	ID          string   `json:"id" yaml:"id"`
	SourceID    string   `json:"source_id" yaml:"source_id"`
	Identifier  string   `json:"identifier" yaml:"identifier"`
	DatasetID   string   `json:"dataset_id" yaml:"dataset_id"`
	Digest      string   `json:"digest,omitempty" yaml:"digest,omitempty"` // SHA-1 of the harvested record
	Current     bool     `json:"current" yaml:"current"`
	HarvestedAt utc.Time `json:"harvested_at" yaml:"harvested_at"`
}
