package routing

import (
	"context"
	"log/slog"
)

// multiLog fans one audit entry out to several sinks. Sink failures are
// logged and swallowed: audit emission must never block a routing decision,
// and a broken stream must not starve the store sink (or vice versa).
type multiLog struct {
	sinks []AuditLog
}

// NewMultiLog combines audit sinks into one AuditLog. Nil sinks are dropped;
// a single sink is returned as-is.
func NewMultiLog(sinks ...AuditLog) AuditLog {
	kept := make([]AuditLog, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &multiLog{sinks: kept}
}

func (m *multiLog) Append(ctx context.Context, entry *AuditEntry) error {
	for _, sink := range m.sinks {
		if err := sink.Append(ctx, entry); err != nil {
			slog.Error("audit sink append failed",
				"ticket", entry.TicketUID,
				"operation", entry.Operation,
				"error", err)
		}
	}
	return nil
}
