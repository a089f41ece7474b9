package dbmysql

import (
	"time"
)

// Message is a direct message between two users. ReadAt stays nil until
// the recipient marks it read and is never cleared afterwards.
type Message struct {
	ID           uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FromUsername string     `gorm:"column:from_username;size:50;not null;index" json:"from_username"`
	ToUsername   string     `gorm:"column:to_username;size:50;not null;index" json:"to_username"`
	Body         string     `gorm:"column:body;type:text;not null" json:"body"`
	SentAt       time.Time  `gorm:"column:sent_at;not null" json:"sent_at"`
	ReadAt       *time.Time `gorm:"column:read_at" json:"read_at"`

	FromUser User `gorm:"foreignKey:FromUsername;references:Username" json:"-"`
	ToUser   User `gorm:"foreignKey:ToUsername;references:Username" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// Now is the current UTC time at the millisecond precision of the
// datetime(3) columns, so values handed back match what a reload returns.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
