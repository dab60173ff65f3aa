package models

import "time"

// Contribution is an immutable audit fact: one amount applied to one group by
// one user. Rows are append-only; the sum per group must stay reconcilable
// with the group's current_amount.
type Contribution struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
