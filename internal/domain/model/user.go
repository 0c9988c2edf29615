package model

import "time"

// User owns subscriptions, orders, and payment transactions.
type User struct {
	ID           string // UUID
	Email        string
	Name         string
	RegisteredAt time.Time
	LastActiveAt time.Time
}
