package convert

import (
	"context"
	"strings"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/dcat"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/slug"
)

// Extra keys written by ToCatalog and read back by ToDcat.
const (
	ExtraIssued         = "dcat_issued"
	ExtraModified       = "dcat_modified"
	ExtraLanguage       = "language"
	ExtraPublisherName  = "dcat_publisher_name"
	ExtraPublisherEmail = "dcat_publisher_email"
	ExtraGUID           = "guid"

	// extraNamespace is stripped before extras are promoted back to
	// record fields, so "language" and "dcat_language" are the same key.
	extraNamespace = "dcat_"
)

// Converter maps between DCAT records and catalog datasets.
type Converter struct {
	opts *options
}

// New creates a Converter.
func New(opts ...Option) (*Converter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Converter{opts: o}, nil
}

// ToCatalog converts a DCAT record to a catalog dataset. A record without a
// parseable issued date is rejected with a ConversionError; everything else
// is normalized or defaulted.
func (c *Converter) ToCatalog(ctx context.Context, rec *dcat.Dataset) (*catalog.Dataset, error) {
	if rec == nil {
		return nil, errors.NewConversionError("", "", "nil record", errors.ErrInvalidInput)
	}

	ds := &catalog.Dataset{
		Title: rec.Title,
		Notes: rec.Description,
		URL:   rec.LandingPage,
		GUID:  rec.Identifier,
	}

	for _, kw := range rec.Keyword {
		ds.Tags = append(ds.Tags, catalog.Tag{Name: kw})
	}

	if strings.TrimSpace(rec.Issued) == "" {
		return nil, errors.NewConversionError(rec.Identifier, "issued", "missing issued date", errors.ErrInvalidInput)
	}
	released, err := FormatDate(rec.Issued)
	if err != nil {
		return nil, errors.NewConversionError(rec.Identifier, "issued", err.Error(), err)
	}
	ds.DateReleased = released
	ds.SetExtra(ExtraIssued, rec.Issued)

	if rec.Modified != "" {
		if updated, err := FormatDate(rec.Modified); err == nil {
			ds.DateUpdated = updated
			ds.SetExtra(ExtraModified, rec.Modified)
		}
	}

	if rec.Identifier != "" {
		ds.SetExtra(ExtraGUID, rec.Identifier)
	}

	c.resolvePublisher(rec, ds)
	ds.OwnerOrg = slug.Make(ds.Publisher.Name)
	if ds.OwnerOrg == "" {
		return nil, errors.NewConversionError(rec.Identifier, "publisher",
			"publisher name "+ds.Publisher.Name+" yields an empty organization slug", errors.ErrInvalidInput)
	}

	ds.Contact = catalog.Contact{Name: constants.Placeholder, Email: constants.Placeholder, Phone: constants.Placeholder}
	if cp := rec.ContactPoint; cp != nil {
		ds.Contact.Name = orPlaceholder(cp.FN)
		ds.Contact.Email = orPlaceholder(cp.Email())
		ds.Contact.Phone = orPlaceholder(cp.Phone)
	}

	ds.LicenseID = constants.DefaultLicenseID
	if rec.License != "" {
		ds.LicenseID = c.opts.licenses.Resolve(ctx, rec.License)
	}

	ds.GeographicCoverage = rec.Spatial

	if langs := nonEmpty(rec.Language); len(langs) > 0 {
		ds.Language = strings.Join(langs, ",")
	} else {
		ds.Language = c.opts.fallbackLanguage
	}
	ds.SetExtra(ExtraLanguage, ds.Language)

	themes := matchThemes(rec.Keyword)
	ds.ThemePrimary = c.opts.fallbackTheme
	if len(themes) > 0 {
		ds.ThemePrimary = themes[0]
	}
	if len(themes) > 1 {
		ds.ThemeSecondary = themes[1]
	}

	for _, dist := range rec.Distribution {
		res := catalog.Resource{
			Name:        dist.Title,
			Description: dist.Description,
			Format:      dist.Format,
			URL:         dist.URL(),
		}
		if n, ok := dist.ByteSize.Int(); ok {
			res.Size = &n
		}
		ds.Resources = append(ds.Resources, res)
	}

	return ds, nil
}

// resolvePublisher fills the publisher fields. A bare string publisher is
// used as the display name only; a structured publisher with a name also
// carries email and phone.
func (c *Converter) resolvePublisher(rec *dcat.Dataset, ds *catalog.Dataset) {
	p := rec.Publisher
	switch {
	case p != nil && p.Literal && strings.TrimSpace(p.Name) != "":
		ds.Publisher = catalog.Contact{Name: p.Name}
		ds.PublisherTitle = p.Name
	case p != nil && !p.Literal && strings.TrimSpace(p.Name) != "":
		ds.Publisher = catalog.Contact{
			Name:  p.Name,
			Email: orPlaceholder(strings.TrimPrefix(p.Mbox, "mailto:")),
			Phone: orPlaceholder(p.Phone),
		}
		ds.PublisherTitle = p.Name
		if p.Mbox != "" {
			ds.SetExtra(ExtraPublisherEmail, ds.Publisher.Email)
		}
	default:
		ds.Publisher = catalog.Contact{Name: c.opts.fallbackPublisher}
		ds.PublisherTitle = c.opts.fallbackPublisher
	}
	ds.SetExtra(ExtraPublisherName, ds.Publisher.Name)
}

// ToDcat converts a catalog dataset to a DCAT record. Extras written by
// ToCatalog take precedence over the dataset's own fields.
func (c *Converter) ToDcat(ds *catalog.Dataset) *dcat.Dataset {
	if ds == nil {
		return nil
	}

	rec := &dcat.Dataset{
		Title:       ds.Title,
		Description: ds.Notes,
		LandingPage: ds.URL,
		Identifier:  ds.GUID,
		Spatial:     ds.GeographicCoverage,
	}
	for _, t := range ds.Tags {
		rec.Keyword = append(rec.Keyword, t.Name)
	}

	publisher := &dcat.Publisher{}
	for _, e := range ds.Extras {
		switch strings.TrimPrefix(e.Key, extraNamespace) {
		case strings.TrimPrefix(ExtraIssued, extraNamespace):
			rec.Issued = e.Value
		case strings.TrimPrefix(ExtraModified, extraNamespace):
			rec.Modified = e.Value
		case strings.TrimPrefix(ExtraLanguage, extraNamespace):
			rec.Language = nonEmpty(strings.Split(e.Value, ","))
		case strings.TrimPrefix(ExtraPublisherName, extraNamespace):
			publisher.Name = e.Value
		case strings.TrimPrefix(ExtraPublisherEmail, extraNamespace):
			publisher.Mbox = e.Value
		case strings.TrimPrefix(ExtraGUID, extraNamespace):
			rec.Identifier = e.Value
		}
	}

	if rec.Issued == "" && ds.DateReleased != "" {
		rec.Issued = isoDate(ds.DateReleased)
	}
	if rec.Modified == "" && ds.DateUpdated != "" {
		rec.Modified = isoDate(ds.DateUpdated)
	}
	if len(rec.Language) == 0 {
		rec.Language = ds.Languages()
	}

	if publisher.Name == "" && ds.Maintainer != "" {
		publisher.Name = ds.Maintainer
		if ds.MaintainerEmail != "" {
			publisher.Mbox = ds.MaintainerEmail
		}
	}
	if publisher.Name == "" && ds.Publisher.Name != "" {
		publisher.Name = ds.Publisher.Name
		if ds.Publisher.Email != constants.Placeholder {
			publisher.Mbox = ds.Publisher.Email
		}
	}
	if publisher.Name != "" || publisher.Mbox != "" {
		rec.Publisher = publisher
	}

	for _, r := range ds.Resources {
		dist := dcat.Distribution{
			Title:       r.Name,
			Description: r.Description,
			Format:      r.Format,
			AccessURL:   r.URL,
		}
		if r.Size != nil {
			dist.ByteSize = dcat.NewSize(*r.Size)
		}
		rec.Distribution = append(rec.Distribution, dist)
	}
	return rec
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return constants.Placeholder
	}
	return s
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
