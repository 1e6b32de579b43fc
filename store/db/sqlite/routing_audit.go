package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/store"
)

func (d *DB) CreateRoutingAuditEntry(ctx context.Context, create *store.RoutingAuditEntry) error {
	query := `
		INSERT INTO routing_audit (ticket_uid, operation, input, output, success, latency_ms, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.TicketUID,
		create.Operation,
		create.Input,
		create.Output,
		create.Success,
		create.LatencyMs,
		create.ErrorMessage,
	); err != nil {
		return errors.Wrap(err, "failed to create routing audit entry")
	}
	return nil
}

func (d *DB) ListRoutingAuditEntries(ctx context.Context, find *store.FindRoutingAuditEntries) ([]*store.RoutingAuditEntry, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.TicketUID != nil {
		where, args = append(where, "ticket_uid = ?"), append(args, *find.TicketUID)
	}
	limit := find.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, ticket_uid, operation, input, output, success, latency_ms, error_message, created_ts
		FROM routing_audit
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id DESC
		LIMIT ?
	`
	args = append(args, limit)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list routing audit entries")
	}
	defer rows.Close()

	var entries []*store.RoutingAuditEntry
	for rows.Next() {
		var entry store.RoutingAuditEntry
		var createdTs int64
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketUID,
			&entry.Operation,
			&entry.Input,
			&entry.Output,
			&entry.Success,
			&entry.LatencyMs,
			&entry.ErrorMessage,
			&createdTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan routing audit entry")
		}
		entry.CreatedAt = time.Unix(createdTs, 0)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate routing audit entries")
	}
	return entries, nil
}
