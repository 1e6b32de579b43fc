package routing

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiLog_FanOut(t *testing.T) {
	primary := &mockAuditLog{}
	secondary := &mockAuditLog{}
	log := NewMultiLog(primary, nil, secondary)

	entry := &AuditEntry{TicketUID: "t-1", Operation: "advisor.suggest_routing", Success: true}
	require.NoError(t, log.Append(context.Background(), entry))

	assert.Len(t, primary.entries, 1)
	assert.Len(t, secondary.entries, 1)
}

func TestMultiLog_SinkFailureIsSwallowed(t *testing.T) {
	broken := &mockAuditLog{err: errors.New("stream down")}
	working := &mockAuditLog{}
	log := NewMultiLog(broken, working)

	require.NoError(t, log.Append(context.Background(), &AuditEntry{TicketUID: "t-1"}))
	assert.Len(t, working.entries, 1, "later sinks still receive the entry")
}

func TestMultiLog_SingleSinkPassthrough(t *testing.T) {
	sink := &mockAuditLog{}
	log := NewMultiLog(sink)
	assert.Same(t, sink, log)
}
