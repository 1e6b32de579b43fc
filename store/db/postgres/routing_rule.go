package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/store"
)

func (d *DB) CreateRoutingRule(ctx context.Context, create *store.RoutingRule) (*store.RoutingRule, error) {
	if len(create.Assignees) == 0 {
		return nil, errors.New("rule assignees must not be empty")
	}
	predicateJSON, err := marshalJSONB(create.Predicate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal rule predicate")
	}

	query := `
		INSERT INTO routing_rule (name, predicate, assignees, active, eval_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if err := d.db.QueryRowContext(ctx, query,
		create.Name,
		predicateJSON,
		pq.Array(create.Assignees),
		create.Active,
		create.EvalOrder,
	).Scan(&create.ID, &create.CreatedAt, &create.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "failed to create routing rule")
	}
	return create, nil
}

func (d *DB) ListRoutingRules(ctx context.Context, find *store.FindRoutingRule) ([]*store.RoutingRule, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, fmt.Sprintf("id = $%d", len(args)+1)), append(args, *find.ID)
	}
	if find.Active != nil {
		where, args = append(where, fmt.Sprintf("active = $%d", len(args)+1)), append(args, *find.Active)
	}

	// eval_order ascending; id ascending breaks ties by insertion order.
	query := `
		SELECT id, name, predicate, assignees, active, eval_order, created_at, updated_at
		FROM routing_rule
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY eval_order ASC, id ASC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list routing rules")
	}
	defer rows.Close()

	var rules []*store.RoutingRule
	for rows.Next() {
		var rule store.RoutingRule
		var predicateJSON []byte
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&predicateJSON,
			pq.Array(&rule.Assignees),
			&rule.Active,
			&rule.EvalOrder,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan routing rule")
		}
		if err := json.Unmarshal(predicateJSON, &rule.Predicate); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal rule predicate")
		}
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate routing rules")
	}
	return rules, nil
}

func (d *DB) UpdateRoutingRule(ctx context.Context, update *store.UpdateRoutingRule) (*store.RoutingRule, error) {
	set, args := []string{}, []any{}
	if update.Name != nil {
		set, args = append(set, fmt.Sprintf("name = $%d", len(args)+1)), append(args, *update.Name)
	}
	if update.Predicate != nil {
		data, err := marshalJSONB(*update.Predicate)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal rule predicate")
		}
		set, args = append(set, fmt.Sprintf("predicate = $%d", len(args)+1)), append(args, data)
	}
	if update.Assignees != nil {
		if len(*update.Assignees) == 0 {
			return nil, errors.New("rule assignees must not be empty")
		}
		set, args = append(set, fmt.Sprintf("assignees = $%d", len(args)+1)), append(args, pq.Array(*update.Assignees))
	}
	if update.Active != nil {
		set, args = append(set, fmt.Sprintf("active = $%d", len(args)+1)), append(args, *update.Active)
	}
	if update.EvalOrder != nil {
		set, args = append(set, fmt.Sprintf("eval_order = $%d", len(args)+1)), append(args, *update.EvalOrder)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, update.ID)

	query := fmt.Sprintf(`
		UPDATE routing_rule SET %s WHERE id = $%d
		RETURNING id, name, predicate, assignees, active, eval_order, created_at, updated_at
	`, strings.Join(set, ", "), len(args))

	var rule store.RoutingRule
	var predicateJSON []byte
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&rule.ID,
		&rule.Name,
		&predicateJSON,
		pq.Array(&rule.Assignees),
		&rule.Active,
		&rule.EvalOrder,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update routing rule")
	}
	if err := json.Unmarshal(predicateJSON, &rule.Predicate); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal rule predicate")
	}
	return &rule, nil
}

func (d *DB) DeleteRoutingRule(ctx context.Context, id int64) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM routing_rule WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete routing rule")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return store.ErrRuleNotFound
	}
	return nil
}
