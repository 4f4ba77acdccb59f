package users

import "time"

// User is one account record: login credential plus the prepaid credit
// balance consumed by generation requests. Credits never go below zero.
type User struct {
	Username     string
	PasswordHash []byte
	Email        string
	Credits      int64
	CreatedAt    time.Time
}
