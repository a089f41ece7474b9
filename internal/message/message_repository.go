package message

import (
	"context"
	"errors"
	"fmt"

	"messagely/internal/common"
	"messagely/internal/dbmysql"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) common.MessageRepository {
	return &messageRepository{db: db}
}

// counterpartColumns limits preloaded users to their public fields.
func counterpartColumns(db *gorm.DB) *gorm.DB {
	return db.Select("username", "first_name", "last_name", "phone")
}

func toCounterpart(u dbmysql.User) common.Counterpart {
	return common.Counterpart{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func (r *messageRepository) Create(ctx context.Context, fromUsername, toUsername, body string) (*common.SentMessage, error) {
	msg := &dbmysql.Message{
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
		SentAt:       dbmysql.Now(),
	}

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
	if err != nil {
		if dbmysql.IsForeignKeyViolation(err) {
			missing := r.missingUser(ctx, fromUsername, toUsername)
			logrus.WithFields(logrus.Fields{
				"from": fromUsername,
				"to":   toUsername,
			}).Warn("Message rejected: unknown participant")
			return nil, common.NotFound("No such user: %s", missing)
		}
		return nil, fmt.Errorf("create message from %s to %s: %w", fromUsername, toUsername, err)
	}

	return &common.SentMessage{
		ID:           msg.ID,
		FromUsername: msg.FromUsername,
		ToUsername:   msg.ToUsername,
		Body:         msg.Body,
		SentAt:       msg.SentAt,
	}, nil
}

// missingUser names the participant that broke the foreign key. It falls
// back to the recipient when the lookup itself fails.
func (r *messageRepository) missingUser(ctx context.Context, fromUsername, toUsername string) string {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.User{}).Where("username = ?", fromUsername).Count(&count).Error
	if err == nil && count == 0 {
		return fromUsername
	}
	return toUsername
}

func (r *messageRepository) Get(ctx context.Context, id uint64) (*common.MessageDetail, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("FromUser", counterpartColumns).
		Preload("ToUser", counterpartColumns).
		Where("id = ?", id).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("No such message: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", id, err)
	}

	return &common.MessageDetail{
		ID:       msg.ID,
		Body:     msg.Body,
		SentAt:   msg.SentAt,
		ReadAt:   msg.ReadAt,
		FromUser: toCounterpart(msg.FromUser),
		ToUser:   toCounterpart(msg.ToUser),
	}, nil
}

// MarkRead stamps read_at once. Later calls leave the first value in place.
func (r *messageRepository) MarkRead(ctx context.Context, id uint64) (*common.ReadReceipt, error) {
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", dbmysql.Now()).Error
	if err != nil {
		return nil, fmt.Errorf("mark message %d read: %w", id, err)
	}

	var msg dbmysql.Message
	err = r.db.WithContext(ctx).Select("id", "read_at").Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("No such message: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reload message %d: %w", id, err)
	}

	return &common.ReadReceipt{ID: msg.ID, ReadAt: msg.ReadAt}, nil
}

func (r *messageRepository) ListFrom(ctx context.Context, username string) ([]common.ListedMessage, error) {
	var rows []dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("ToUser", counterpartColumns).
		Where("from_username = ?", username).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list messages from %s: %w", username, err)
	}

	out := make([]common.ListedMessage, 0, len(rows))
	for _, m := range rows {
		to := toCounterpart(m.ToUser)
		out = append(out, common.ListedMessage{
			ID:     m.ID,
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
			ToUser: &to,
		})
	}
	return out, nil
}

func (r *messageRepository) ListTo(ctx context.Context, username string) ([]common.ListedMessage, error) {
	var rows []dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("FromUser", counterpartColumns).
		Where("to_username = ?", username).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list messages to %s: %w", username, err)
	}

	out := make([]common.ListedMessage, 0, len(rows))
	for _, m := range rows {
		from := toCounterpart(m.FromUser)
		out = append(out, common.ListedMessage{
			ID:       m.ID,
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
			FromUser: &from,
		})
	}
	return out, nil
}
