package message

import (
	"context"
	"regexp"
	"testing"
	"time"

	"messagely/internal/common"
	"messagely/internal/dbmysql"
	"messagely/internal/dbmysql/dbtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username string) {
	t.Helper()
	require.NoError(t, db.Create(&dbmysql.User{
		Username:  username,
		Password:  "hash",
		FirstName: "First-" + username,
		LastName:  "Last-" + username,
		Phone:     "555-" + username,
		JoinAt:    time.Now().UTC(),
	}).Error)
}

func setupMessageRepo(t *testing.T, users ...string) common.MessageRepository {
	t.Helper()
	db := dbtest.OpenSQLite(t)
	for _, u := range users {
		seedUser(t, db, u)
	}
	return NewMessageRepository(db)
}

func counterpart(username string) common.Counterpart {
	return common.Counterpart{
		Username:  username,
		FirstName: "First-" + username,
		LastName:  "Last-" + username,
		Phone:     "555-" + username,
	}
}

func TestMessageRepository_CreateThenGet(t *testing.T) {
	repo := setupMessageRepo(t, "alice", "bob")
	ctx := context.Background()

	sent, err := repo.Create(ctx, "alice", "bob", "hi")
	require.NoError(t, err)
	assert.NotZero(t, sent.ID)
	assert.Equal(t, "alice", sent.FromUsername)
	assert.Equal(t, "bob", sent.ToUsername)
	assert.Equal(t, "hi", sent.Body)
	assert.WithinDuration(t, time.Now(), sent.SentAt, 5*time.Second)

	got, err := repo.Get(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "hi", got.Body)
	assert.True(t, got.SentAt.Equal(sent.SentAt))
	assert.Zero(t, sent.SentAt.Nanosecond()%int(time.Millisecond), "sent_at matches datetime(3) storage")
	assert.Nil(t, got.ReadAt)
	assert.Equal(t, counterpart("alice"), got.FromUser)
	assert.Equal(t, counterpart("bob"), got.ToUser)
}

func TestMessageRepository_CreateUnknownParticipant(t *testing.T) {
	repo := setupMessageRepo(t, "alice")
	ctx := context.Background()

	tests := []struct {
		name    string
		from    string
		to      string
		missing string
	}{
		{name: "unknown recipient", from: "alice", to: "ghost", missing: "ghost"},
		{name: "unknown sender", from: "ghost", to: "alice", missing: "ghost"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tc.from, tc.to, "anyone there?")
			require.Error(t, err)
			assert.True(t, common.IsNotFound(err))
			assert.Equal(t, "No such user: "+tc.missing, err.Error())
		})
	}
}

func TestMessageRepository_GetMissing(t *testing.T) {
	repo := setupMessageRepo(t)

	_, err := repo.Get(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, common.IsNotFound(err))
	assert.Equal(t, "No such message: 42", err.Error())
}

func TestMessageRepository_MarkReadKeepsFirstTimestamp(t *testing.T) {
	repo := setupMessageRepo(t, "alice", "bob")
	ctx := context.Background()

	sent, err := repo.Create(ctx, "alice", "bob", "hi")
	require.NoError(t, err)

	first, err := repo.MarkRead(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, first.ID)
	require.NotNil(t, first.ReadAt)

	time.Sleep(5 * time.Millisecond)
	second, err := repo.MarkRead(ctx, sent.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.True(t, second.ReadAt.Equal(*first.ReadAt), "re-marking leaves read_at unchanged")

	got, err := repo.Get(ctx, sent.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(*first.ReadAt))

	_, err = repo.MarkRead(ctx, sent.ID+100)
	assert.True(t, common.IsNotFound(err))
}

func TestMessageRepository_Lists(t *testing.T) {
	repo := setupMessageRepo(t, "alice", "bob", "carol")
	ctx := context.Background()

	m1, err := repo.Create(ctx, "alice", "bob", "first")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "bob", "alice", "reply")
	require.NoError(t, err)
	m3, err := repo.Create(ctx, "alice", "carol", "second")
	require.NoError(t, err)

	from, err := repo.ListFrom(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, from, 2)
	assert.Equal(t, m1.ID, from[0].ID)
	assert.Equal(t, m3.ID, from[1].ID)
	assert.Nil(t, from[0].FromUser)
	require.NotNil(t, from[0].ToUser)
	assert.Equal(t, counterpart("bob"), *from[0].ToUser)
	assert.Equal(t, counterpart("carol"), *from[1].ToUser)

	to, err := repo.ListTo(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "reply", to[0].Body)
	assert.Nil(t, to[0].ToUser)
	require.NotNil(t, to[0].FromUser)
	assert.Equal(t, counterpart("bob"), *to[0].FromUser)

	empty, err := repo.ListTo(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMessageRepository_DriverFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("mysql foreign key error names the recipient", func(t *testing.T) {
		db, mock := dbtest.OpenMock(t)
		repo := NewMessageRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).
			WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})
		mock.ExpectRollback()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

		_, err := repo.Create(ctx, "alice", "ghost", "hi")
		require.Error(t, err)
		assert.Equal(t, "No such user: ghost", err.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update failure is not a domain error", func(t *testing.T) {
		db, mock := dbtest.OpenMock(t)
		repo := NewMessageRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `messages` SET `read_at`=?")).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err := repo.MarkRead(ctx, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 500, common.StatusOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
