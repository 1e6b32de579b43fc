package sqlite

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/store"
)

func (d *DB) CreateRoutingRule(ctx context.Context, create *store.RoutingRule) (*store.RoutingRule, error) {
	predicateJSON, assigneesJSON, err := marshalRuleColumns(create.Predicate, create.Assignees)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO routing_rule (name, predicate, assignees, active, eval_order)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_ts, updated_ts
	`
	var createdTs, updatedTs int64
	if err := d.db.QueryRowContext(ctx, query,
		create.Name,
		predicateJSON,
		assigneesJSON,
		create.Active,
		create.EvalOrder,
	).Scan(&create.ID, &createdTs, &updatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create routing rule")
	}
	create.CreatedAt = time.Unix(createdTs, 0)
	create.UpdatedAt = time.Unix(updatedTs, 0)
	return create, nil
}

func (d *DB) ListRoutingRules(ctx context.Context, find *store.FindRoutingRule) ([]*store.RoutingRule, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Active != nil {
		where, args = append(where, "active = ?"), append(args, *find.Active)
	}

	// eval_order ascending; id ascending breaks ties by insertion order.
	query := `
		SELECT id, name, predicate, assignees, active, eval_order, created_ts, updated_ts
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
		var predicateJSON, assigneesJSON string
		var createdTs, updatedTs int64
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&predicateJSON,
			&assigneesJSON,
			&rule.Active,
			&rule.EvalOrder,
			&createdTs,
			&updatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan routing rule")
		}
		if err := json.Unmarshal([]byte(predicateJSON), &rule.Predicate); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal rule predicate")
		}
		if err := json.Unmarshal([]byte(assigneesJSON), &rule.Assignees); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal rule assignees")
		}
		rule.CreatedAt = time.Unix(createdTs, 0)
		rule.UpdatedAt = time.Unix(updatedTs, 0)
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
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Predicate != nil {
		data, err := json.Marshal(*update.Predicate)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal rule predicate")
		}
		set, args = append(set, "predicate = ?"), append(args, string(data))
	}
	if update.Assignees != nil {
		if len(*update.Assignees) == 0 {
			return nil, errors.New("rule assignees must not be empty")
		}
		data, err := json.Marshal(*update.Assignees)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal rule assignees")
		}
		set, args = append(set, "assignees = ?"), append(args, string(data))
	}
	if update.Active != nil {
		set, args = append(set, "active = ?"), append(args, *update.Active)
	}
	if update.EvalOrder != nil {
		set, args = append(set, "eval_order = ?"), append(args, *update.EvalOrder)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	set = append(set, "updated_ts = strftime('%s', 'now')")
	args = append(args, update.ID)

	query := "UPDATE routing_rule SET " + strings.Join(set, ", ") + " WHERE id = ?"
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update routing rule")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return nil, store.ErrRuleNotFound
	}

	rules, err := d.ListRoutingRules(ctx, &store.FindRoutingRule{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, store.ErrRuleNotFound
	}
	return rules[0], nil
}

func (d *DB) DeleteRoutingRule(ctx context.Context, id int64) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM routing_rule WHERE id = ?", id)
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

func marshalRuleColumns(predicate map[string]any, assignees []string) (string, string, error) {
	if len(assignees) == 0 {
		return "", "", errors.New("rule assignees must not be empty")
	}
	predicateJSON := "{}"
	if predicate != nil {
		data, err := json.Marshal(predicate)
		if err != nil {
			return "", "", errors.Wrap(err, "failed to marshal rule predicate")
		}
		predicateJSON = string(data)
	}
	assigneesData, err := json.Marshal(assignees)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal rule assignees")
	}
	return predicateJSON, string(assigneesData), nil
}
