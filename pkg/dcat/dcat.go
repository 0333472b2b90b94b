// Package dcat models DCAT dataset records as published in JSON feeds.
//
// Feeds in the wild are loose about types: publishers arrive as bare strings
// or objects, byte sizes as numbers or strings, keywords and languages as a
// single string or a list. The types here accept all of those forms and
// re-encode them in their canonical shape.
package dcat

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Dataset is one remote dataset description.
type Dataset struct {
	Identifier   string         `json:"identifier,omitempty"`
	Title        string         `json:"title,omitempty"`
	Description  string         `json:"description,omitempty"`
	LandingPage  string         `json:"landingPage,omitempty"`
	Issued       string         `json:"issued,omitempty"`
	Modified     string         `json:"modified,omitempty"`
	Publisher    *Publisher     `json:"publisher,omitempty"`
	ContactPoint *ContactPoint  `json:"contactPoint,omitempty"`
	Keyword      StringList     `json:"keyword,omitempty"`
	Spatial      string         `json:"spatial,omitempty"`
	Language     StringList     `json:"language,omitempty"`
	License      string         `json:"license,omitempty"`
	Distribution []Distribution `json:"distribution,omitempty"`
}

// Publisher is the agent responsible for a dataset. A publisher given as a
// bare string in the feed decodes with Literal set and only Name filled.
type Publisher struct {
	Name    string `json:"name,omitempty"`
	Mbox    string `json:"mbox,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Literal bool   `json:"-"`
}

// UnmarshalJSON accepts either a string or an object.
func (p *Publisher) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*p = Publisher{Name: name, Literal: true}
		return nil
	}
	type plain Publisher
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Publisher(v)
	return nil
}

// MarshalJSON writes literal publishers back as strings.
func (p Publisher) MarshalJSON() ([]byte, error) {
	if p.Literal {
		return json.Marshal(p.Name)
	}
	type plain Publisher
	return json.Marshal(plain(p))
}

// ContactPoint is a vCard style contact.
type ContactPoint struct {
	FN       string `json:"fn,omitempty"`
	HasEmail string `json:"hasEmail,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Email returns the contact email without a mailto: prefix.
func (c *ContactPoint) Email() string {
	if c == nil {
		return ""
	}
	return strings.TrimPrefix(c.HasEmail, "mailto:")
}

// Distribution is one downloadable or accessible form of a dataset.
// Feeds spell the URL keys inconsistently, so all four spellings are kept.
type Distribution struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
	MediaType   string `json:"mediaType,omitempty"`
	DownloadUrl string `json:"downloadUrl,omitempty"` //nolint:revive // key spelling used by ArcGIS feeds
	DownloadURL string `json:"downloadURL,omitempty"`
	AccessUrl   string `json:"accessUrl,omitempty"` //nolint:revive // key spelling used by ArcGIS feeds
	AccessURL   string `json:"accessURL,omitempty"`
	ByteSize    *Size  `json:"byteSize,omitempty"`
}

// URL returns the first non-empty of downloadUrl, downloadURL, accessUrl
// and accessURL.
func (d Distribution) URL() string {
	for _, u := range []string{d.DownloadUrl, d.DownloadURL, d.AccessUrl, d.AccessURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// Size is a byte size that may be encoded as a number or a string.
type Size struct {
	raw string
}

// NewSize returns a Size holding n.
func NewSize(n int64) *Size {
	return &Size{raw: strconv.FormatInt(n, 10)}
}

// Int returns the size as an integer and whether it parsed.
func (s *Size) Int() (int64, bool) {
	if s == nil || s.raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s.raw), 10, 64)
	if err != nil {
		// "1024.0" style sizes are common enough to accept.
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s.raw), 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// String returns the size as it appeared in the feed.
func (s *Size) String() string {
	if s == nil {
		return ""
	}
	return s.raw
}

// UnmarshalJSON accepts numbers, strings and null.
func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		s.raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.raw)
	}
	s.raw = string(data)
	return nil
}

// MarshalJSON writes parseable sizes as numbers and anything else as a string.
func (s Size) MarshalJSON() ([]byte, error) {
	if n, ok := s.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(s.raw)
}

// StringList is a list of strings that also decodes from a single string.
type StringList []string

// UnmarshalJSON accepts a string, a list of strings or null.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	}
	var v []string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = v
	return nil
}
