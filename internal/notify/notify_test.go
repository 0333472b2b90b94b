package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/pkg/harvest"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	sent    []message
	failing bool
	closed  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.failing {
		return errors.New("no responders")
	}
	c.sent = append(c.sent, message{subject, data})
	return nil
}

func (c *fakeConn) Flush() error { return nil }
func (c *fakeConn) Close()       { c.closed = true }

func TestPublishResult(t *testing.T) {
	conn := &fakeConn{}
	p := New(conn, "")

	r := harvest.NewResult("job-1", "met.ie")
	r.Record(harvest.Operation{Kind: harvest.Create, Identifier: "a"}, nil, nil)
	r.Finish(nil)
	require.NoError(t, p.PublishResult(r.Snapshot()))

	require.Len(t, conn.sent, 1)
	assert.Equal(t, "harvester.job.met_ie", conn.sent[0].subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(conn.sent[0].data, &got))
	assert.Equal(t, "job-1", got["job_id"])
	assert.Equal(t, "COMPLETED", got["status"])
}

func TestPublishDataset(t *testing.T) {
	conn := &fakeConn{}
	p := New(conn, "catalog")

	err := p.PublishDataset("src", &harvest.Applied{Kind: harvest.Update, Identifier: "x", DatasetID: "d1", Name: "roads"})
	require.NoError(t, err)
	require.Len(t, conn.sent, 1)
	assert.Equal(t, "catalog.dataset.update", conn.sent[0].subject)

	var ev DatasetEvent
	require.NoError(t, json.Unmarshal(conn.sent[0].data, &ev))
	assert.Equal(t, "d1", ev.DatasetID)
	assert.Equal(t, "roads", ev.Name)
}

func TestPublishFailure(t *testing.T) {
	p := New(&fakeConn{failing: true}, "")
	err := p.PublishDataset("src", &harvest.Applied{Kind: harvest.Delete})
	assert.ErrorContains(t, err, "no responders")
}

func TestClose(t *testing.T) {
	conn := &fakeConn{}
	New(conn, "").Close()
	assert.True(t, conn.closed)
}

type mockConn struct {
	mock.Mock
}

func (m *mockConn) Publish(subject string, data []byte) error {
	return m.Called(subject, data).Error(0)
}

func (m *mockConn) Flush() error {
	return m.Called().Error(0)
}

func (m *mockConn) Close() {
	m.Called()
}

func TestCloseFlushesBeforeClosing(t *testing.T) {
	conn := &mockConn{}
	flush := conn.On("Flush").Return(errors.New("timeout")).Once()
	conn.On("Close").Return().Once().NotBefore(flush)

	New(conn, "").Close()

	conn.AssertExpectations(t)
}

func TestPublishErrorIsReturned(t *testing.T) {
	conn := &mockConn{}
	conn.On("Publish", "harvester.dataset.delete", mock.Anything).Return(errors.New("no responders")).Once()

	err := New(conn, "").PublishDataset("src", &harvest.Applied{Kind: harvest.Delete, Identifier: "gone"})
	assert.Error(t, err)
	conn.AssertExpectations(t)
}
