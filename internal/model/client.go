package model

import "time"

// Client is a person the practitioner sees.
type Client struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	SessionValue float64   `json:"session_value"`
	BillingDay   *int      `json:"billing_day,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive implements SoftDeletable.
func (c *Client) IsActive() bool { return c.Active }

// Deactivate implements SoftDeletable.
func (c *Client) Deactivate() { c.Active = false }
