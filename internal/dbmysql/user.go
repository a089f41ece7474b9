package dbmysql

import (
	"time"
)

type User struct {
	Username    string     `gorm:"column:username;primaryKey;size:50" json:"username"`
	Password    string     `gorm:"column:password;size:255;not null" json:"-"`
	FirstName   string     `gorm:"column:first_name;size:100;not null" json:"first_name"`
	LastName    string     `gorm:"column:last_name;size:100;not null" json:"last_name"`
	Phone       string     `gorm:"column:phone;size:30;not null" json:"phone"`
	JoinAt      time.Time  `gorm:"column:join_at;not null" json:"join_at"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"last_login_at"`
}

func (User) TableName() string {
	return "users"
}
