package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"praxis/internal/model"
)

const clientColumns = `id, name, phone, email, session_value, billing_day, notes, active, created_at, updated_at`

func scanClient(row rowScanner) (*model.Client, error) {
	var (
		c          model.Client
		billingDay sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.SessionValue,
		&billingDay, &c.Notes, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if billingDay.Valid {
		v := int(billingDay.Int64)
		c.BillingDay = &v
	}
	return &c, nil
}

// CreateClient stores a new client and fills in its id.
func (d *DB) CreateClient(ctx context.Context, c *model.Client) error {
	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO clients (name, phone, email, session_value, billing_day, notes, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		c.Name, c.Phone, c.Email, c.SessionValue, c.BillingDay, c.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("client insert id: %w", err)
	}
	c.ID = id
	c.Active = true
	return nil
}

// GetClient returns the active client with the given id.
func (d *DB) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ? AND active = 1`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	return c, nil
}

// ClientExists reports whether an active client with the id is stored.
func (d *DB) ClientExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM clients WHERE id = ? AND active = 1`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("client exists %d: %w", id, err)
	}
	return n > 0, nil
}

// ListActiveClients returns all active clients ordered by name.
func (d *DB) ListActiveClients(ctx context.Context) ([]model.Client, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateClient rewrites the editable fields of a client.
func (d *DB) UpdateClient(ctx context.Context, c *model.Client) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE clients SET name = ?, phone = ?, email = ?, session_value = ?,
			billing_day = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`,
		c.Name, c.Phone, c.Email, c.SessionValue, c.BillingDay, c.Notes, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update client %d: %w", c.ID, err)
	}
	return requireRow(res, c.ID)
}

// DeactivateClient soft-deletes a client.
func (d *DB) DeactivateClient(ctx context.Context, id int64) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE clients SET active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`, id)
	if err != nil {
		return fmt.Errorf("deactivate client %d: %w", id, err)
	}
	return requireRow(res, id)
}
