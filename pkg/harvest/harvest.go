// Package harvest implements the two phases of a harvest cycle.
//
// Gather walks every page of a source's feed, diffs the identifiers it finds
// against the identities already recorded for the source, and returns one
// Operation per new, changed, or vanished dataset. Import applies a single
// Operation to the catalog. Gather is read-only apart from retiring the
// identities of deleted datasets; Import owns all other mutation.
//
// Operations are self-contained: they can be imported in any order and
// concurrently, as long as operations for the same identifier are not
// imported at the same time. Importer enforces that with a per-identifier
// lock.
package harvest

import (
	"encoding/json"
	"fmt"
)

// Source is a remote DCAT feed harvested into the catalog.
type Source struct {
	ID            string `json:"id" yaml:"id"`                                             // Stable source id, scopes identities
	URL           string `json:"url" yaml:"url"`                                           // Feed URL or local path
	Title         string `json:"title,omitempty" yaml:"title,omitempty"`                   // Display name
	ForceReimport bool   `json:"force_reimport,omitempty" yaml:"force_reimport,omitempty"` // Reprocess without superseding identities
	MaxPages      int    `json:"max_pages,omitempty" yaml:"max_pages,omitempty"`           // Page limit, zero uses the harvester default
}

// Validate checks that the source can be harvested.
func (s Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source id is required")
	}
	if s.URL == "" {
		return fmt.Errorf("source %s: url is required", s.ID)
	}
	return nil
}

// OperationKind is the action an Operation asks the importer to take.
type OperationKind string

const (
	// Create adds a dataset for an identifier seen for the first time.
	Create OperationKind = "create"
	// Update refreshes the dataset of a known identifier.
	Update OperationKind = "update"
	// Delete removes the dataset of an identifier no longer in the feed.
	Delete OperationKind = "delete"
)

// Operation is one pending change produced by Gather.
type Operation struct {
	Kind       OperationKind   `json:"kind"`
	SourceID   string          `json:"source_id"`
	Identifier string          `json:"identifier"`
	DatasetID  string          `json:"dataset_id,omitempty"` // Set for Update and Delete
	Page       int             `json:"page,omitempty"`       // Page the record was found on
	Raw        json.RawMessage `json:"raw,omitempty"`        // Set for Create and Update
	Digest     string          `json:"digest,omitempty"`     // SHA-1 of Raw, recorded on the identity
	Force      bool            `json:"force,omitempty"`      // Reprocess without superseding the current identity
}

// String implements fmt.Stringer.
func (op Operation) String() string {
	if op.DatasetID != "" {
		return fmt.Sprintf("%s %s (%s)", op.Kind, op.Identifier, op.DatasetID)
	}
	return fmt.Sprintf("%s %s", op.Kind, op.Identifier)
}

// Counts tallies operations by kind.
type Counts struct {
	Create int `json:"create"`
	Update int `json:"update"`
	Delete int `json:"delete"`
}

// Total returns the number of operations counted.
func (c Counts) Total() int {
	return c.Create + c.Update + c.Delete
}

// Add counts one operation of kind k.
func (c *Counts) Add(k OperationKind) {
	switch k {
	case Create:
		c.Create++
	case Update:
		c.Update++
	case Delete:
		c.Delete++
	}
}

// Count tallies a list of operations.
func Count(ops []Operation) Counts {
	var c Counts
	for _, op := range ops {
		c.Add(op.Kind)
	}
	return c
}

// Observer receives harvest progress events. Implementations must be safe
// for concurrent use.
type Observer interface {
	PageFetched(sourceID string, page, records int)
	GatherFailed(sourceID string, err error)
	Imported(sourceID string, kind OperationKind, err error)
}

type nopObserver struct{}

func (nopObserver) PageFetched(string, int, int)          {}
func (nopObserver) GatherFailed(string, error)            {}
func (nopObserver) Imported(string, OperationKind, error) {}
