package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/store"
)

func (d *DB) CreateTicket(ctx context.Context, create *store.Ticket) (*store.Ticket, error) {
	payloadJSON, err := marshalJSONB(create.Payload)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO ticket (uid, request_type, priority, customer_email, summary, payload, assignee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	if err := d.db.QueryRowContext(ctx, query,
		create.UID,
		create.RequestType,
		create.Priority,
		create.CustomerEmail,
		create.Summary,
		payloadJSON,
		create.Assignee,
		create.Status,
	).Scan(&create.ID, &create.CreatedAt, &create.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "failed to create ticket")
	}
	return create, nil
}

func (d *DB) GetTicket(ctx context.Context, find *store.FindTicket) (*store.Ticket, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, fmt.Sprintf("id = $%d", len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, fmt.Sprintf("uid = $%d", len(args)+1)), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, request_type, priority, customer_email, summary, payload, assignee, status, created_at, updated_at
		FROM ticket
		WHERE ` + strings.Join(where, " AND ") + `
		LIMIT 1
	`
	ticket, err := scanTicket(d.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTicketNotFound
		}
		return nil, errors.Wrap(err, "failed to get ticket")
	}
	return ticket, nil
}

func (d *DB) UpdateTicketRouting(ctx context.Context, update *store.UpdateTicketRouting) error {
	query := `
		UPDATE ticket
		SET assignee = $1, status = $2, updated_at = NOW()
		WHERE uid = $3
	`
	result, err := d.db.ExecContext(ctx, query, update.Assignee, update.Status, update.UID)
	if err != nil {
		return errors.Wrap(err, "failed to update ticket routing")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return store.ErrTicketNotFound
	}
	return nil
}

func (d *DB) ListResolvedTickets(ctx context.Context, find *store.FindResolvedTickets) ([]*store.Ticket, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, uid, request_type, priority, customer_email, summary, payload, assignee, status, created_at, updated_at
		FROM ticket
		WHERE request_type = $1 AND status = $2 AND assignee != ''
		ORDER BY updated_at DESC, id DESC
		LIMIT $3
	`
	rows, err := d.db.QueryContext(ctx, query, find.RequestType, store.TicketStatusResolved, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list resolved tickets")
	}
	defer rows.Close()

	var tickets []*store.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan ticket")
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tickets")
	}
	return tickets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*store.Ticket, error) {
	var ticket store.Ticket
	var payloadJSON []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.UID,
		&ticket.RequestType,
		&ticket.Priority,
		&ticket.CustomerEmail,
		&ticket.Summary,
		&payloadJSON,
		&ticket.Assignee,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadJSON, &ticket.Payload); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal ticket payload")
	}
	return &ticket, nil
}

// marshalJSONB encodes a payload map for a JSONB column, always producing
// valid JSON (empty object for a nil map).
func marshalJSONB(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}
	return data, nil
}
