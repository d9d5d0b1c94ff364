package models

import "time"

// FeeStructure describes a billing template assignable to students.
type FeeStructure struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Amount       float64   `db:"amount" json:"amount"`
	BillingCycle string    `db:"billing_cycle" json:"billing_cycle"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
