package common

import (
	"context"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// UserRepository is the credential store over the users table.
type UserRepository interface {
	Register(ctx context.Context, params RegisterParams) (*RegisteredUser, error)
	// Authenticate returns false, not an error, for an unknown username.
	Authenticate(ctx context.Context, username, password string) (bool, error)
	UpdateLoginTimestamp(ctx context.Context, username string) error
	Get(ctx context.Context, username string) (*UserProfile, error)
	All(ctx context.Context) ([]UserSummary, error)
}

// MessageRepository is the message store over the messages table.
type MessageRepository interface {
	Create(ctx context.Context, fromUsername, toUsername, body string) (*SentMessage, error)
	Get(ctx context.Context, id uint64) (*MessageDetail, error)
	MarkRead(ctx context.Context, id uint64) (*ReadReceipt, error)
	ListFrom(ctx context.Context, username string) ([]ListedMessage, error)
	ListTo(ctx context.Context, username string) ([]ListedMessage, error)
}

// Store is the storage handle injected into the HTTP layer.
type Store struct {
	Users    UserRepository
	Messages MessageRepository
}

func NewStore(users UserRepository, messages MessageRepository) *Store {
	return &Store{Users: users, Messages: messages}
}
