package dcat

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"

	"github.com/agentstation/harvester/pkg/errors"
)

// Entry is one record extracted from a feed page: its identifier, the
// compact JSON text of the record and the digest of that text.
type Entry struct {
	Identifier string
	Raw        json.RawMessage
	Digest     string
}

// catalogDocument is the DCAT-US data.json shape. Dataset stays nil when the
// key is missing so an error body is not mistaken for an empty catalog.
type catalogDocument struct {
	Dataset *[]json.RawMessage `json:"dataset"`
}

// ParsePage splits a feed page into entries. A page is either a JSON array
// of datasets or a catalog object with a "dataset" array; an object without
// one is a ParseError. Records without an
// identifier are keyed by the SHA-1 of their JSON so they still reconcile
// across runs.
func ParsePage(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.NewParseError("json", "", "empty document", nil)
	}

	var records []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, errors.NewParseError("json", "", err.Error(), err)
		}
	case '{':
		var doc catalogDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.NewParseError("json", "", err.Error(), err)
		}
		if doc.Dataset == nil {
			return nil, errors.NewParseError("json", "", `catalog object has no "dataset" list`, nil)
		}
		records = *doc.Dataset
	default:
		return nil, errors.NewParseError("json", "", "expected a dataset list or a catalog object", nil)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		var compact bytes.Buffer
		if err := json.Compact(&compact, rec); err != nil {
			return nil, errors.NewParseError("json", "", err.Error(), err)
		}
		var head struct {
			Identifier json.RawMessage `json:"identifier"`
		}
		if err := json.Unmarshal(compact.Bytes(), &head); err != nil {
			return nil, errors.NewParseError("json", "", "dataset is not an object", err)
		}
		raw := json.RawMessage(compact.Bytes())
		digest := Digest(raw)
		entries = append(entries, Entry{Identifier: identifierOf(head.Identifier, digest), Raw: raw, Digest: digest})
	}
	return entries, nil
}

// identifierOf returns the record identifier as a string, accepting numeric
// identifiers, or the record digest when it has none.
func identifierOf(field json.RawMessage, digest string) string {
	field = bytes.TrimSpace(field)
	if len(field) > 0 && !bytes.Equal(field, []byte("null")) {
		var s string
		if field[0] == '"' {
			if err := json.Unmarshal(field, &s); err == nil && s != "" {
				return s
			}
		} else {
			return string(field)
		}
	}
	return digest
}

// Digest returns the hex SHA-1 of a record's JSON text. ParsePage compacts
// records first, so formatting changes in the feed do not alter it.
func Digest(raw []byte) string {
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// Decode parses one raw record.
func Decode(raw []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, errors.NewParseError("json", "", err.Error(), err)
	}
	return &ds, nil
}
