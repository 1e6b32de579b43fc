package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/store"
)

func (d *DB) CreateRoutingAuditEntry(ctx context.Context, create *store.RoutingAuditEntry) error {
	// output is nullable: failed operations carry no output snapshot.
	var output any
	if create.Output != "" {
		output = create.Output
	}
	input := create.Input
	if input == "" {
		input = "{}"
	}

	query := `
		INSERT INTO routing_audit (ticket_uid, operation, input, output, success, latency_ms, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.TicketUID,
		create.Operation,
		input,
		output,
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
		where, args = append(where, fmt.Sprintf("ticket_uid = $%d", len(args)+1)), append(args, *find.TicketUID)
	}
	limit := find.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := `
		SELECT id, ticket_uid, operation, input, output, success, latency_ms, error_message, created_at
		FROM routing_audit
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id DESC
		LIMIT $` + fmt.Sprint(len(args))
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list routing audit entries")
	}
	defer rows.Close()

	var entries []*store.RoutingAuditEntry
	for rows.Next() {
		var entry store.RoutingAuditEntry
		var output sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketUID,
			&entry.Operation,
			&entry.Input,
			&output,
			&entry.Success,
			&entry.LatencyMs,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan routing audit entry")
		}
		entry.Output = output.String
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate routing audit entries")
	}
	return entries, nil
}
