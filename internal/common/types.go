package common

import (
	"time"
)

// RegisterParams is the input to UserRepository.Register.
type RegisterParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// RegisteredUser is what registration hands back; it never carries the hash.
type RegisteredUser struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserProfile struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	JoinAt      time.Time  `json:"join_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// Counterpart is the slice of a user embedded in message responses.
type Counterpart struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type SentMessage struct {
	ID           uint64    `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

type MessageDetail struct {
	ID       uint64      `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser Counterpart `json:"from_user"`
	ToUser   Counterpart `json:"to_user"`
}

// ListedMessage is one entry of a user's inbox or outbox. Exactly one of
// FromUser (inbox) or ToUser (outbox) is set.
type ListedMessage struct {
	ID       uint64       `json:"id"`
	Body     string       `json:"body"`
	SentAt   time.Time    `json:"sent_at"`
	ReadAt   *time.Time   `json:"read_at"`
	FromUser *Counterpart `json:"from_user,omitempty"`
	ToUser   *Counterpart `json:"to_user,omitempty"`
}

type ReadReceipt struct {
	ID     uint64     `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}
