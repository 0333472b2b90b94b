// Package notify publishes harvest job results and dataset events to NATS.
package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
	"github.com/agentstation/harvester/pkg/logging"
)

// DefaultSubject is the subject prefix used when none is configured.
const DefaultSubject = "harvester"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// Publisher sends JSON messages under a subject prefix:
//
//	<prefix>.job.<source>     job results
//	<prefix>.dataset.<kind>   applied operations
type Publisher struct {
	conn   Conn
	prefix string
}

// Connect dials a NATS server.
func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("harvester"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.WrapResource("connect", "nats", url, err)
	}
	return New(nc, prefix), nil
}

// New wraps an existing connection.
func New(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubject
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// DatasetEvent announces an applied operation.
type DatasetEvent struct {
	SourceID   string                `json:"source_id"`
	Kind       harvest.OperationKind `json:"kind"`
	Identifier string                `json:"identifier"`
	DatasetID  string                `json:"dataset_id"`
	Name       string                `json:"name,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// PublishResult publishes a finished job.
func (p *Publisher) PublishResult(r *harvest.Result) error {
	return p.publish(p.subject("job", r.SourceID), r)
}

// PublishDataset publishes one applied operation.
func (p *Publisher) PublishDataset(sourceID string, a *harvest.Applied) error {
	ev := DatasetEvent{
		SourceID:   sourceID,
		Kind:       a.Kind,
		Identifier: a.Identifier,
		DatasetID:  a.DatasetID,
		Name:       a.Name,
		Timestamp:  time.Now().UTC(),
	}
	return p.publish(p.subject("dataset", string(a.Kind)), ev)
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Flush(); err != nil {
		logging.Warn().Err(err).Msg("Failed to flush NATS connection")
	}
	p.conn.Close()
}

func (p *Publisher) subject(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	clean = append(clean, p.prefix)
	for _, s := range parts {
		// subjects use '.' as the token separator
		clean = append(clean, strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s))
	}
	return strings.Join(clean, ".")
}

func (p *Publisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return errors.WrapResource("publish", "nats", subject, err)
	}
	logging.Debug().Str("subject", subject).Int("bytes", len(data)).Msg("Published message")
	return nil
}
