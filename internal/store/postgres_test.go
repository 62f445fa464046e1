package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/recoverytrack/apiserver/internal/auth"
	"github.com/recoverytrack/apiserver/types"
)

var userRowColumns = []string{
	"id", "username", "password_hash", "email", "addiction_types", "recovery_start_date", "emergency_contacts", "created_at",
}

func setupPostgresStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock, NewPostgresStore(db, bcrypt.MinCost)
}

func expectIdentityCheck(mock sqlmock.Sqlmock, username, email string, taken bool) {
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE username = \$1 OR email = \$2\)`).
		WithArgs(username, email).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(taken))
}

func TestPostgresRegister_Success(t *testing.T) {
	_, mock, s := setupPostgresStore(t)

	expectIdentityCheck(mock, "river", "river@example.com", false)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("river", sqlmock.AnyArg(), "river@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	user, err := s.Register(context.Background(), types.RegisterUser{
		Username:          "river",
		Password:          "longenough",
		Email:             "river@example.com",
		AddictionTypes:    []string{"gambling"},
		RecoveryStartDate: time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, []string{"gambling"}, user.AddictionTypes)
	assert.Equal(t, []string{}, user.EmergencyContacts)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRegister_UniqueViolation(t *testing.T) {
	_, mock, s := setupPostgresStore(t)

	expectIdentityCheck(mock, "demo_user", "x@example.com", false)
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_username_key"})

	_, err := s.Register(context.Background(), types.RegisterUser{Username: "demo_user", Password: "longenough", Email: "x@example.com"})

	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "users_username_key")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRegister_TakenIdentitySkipsHashing(t *testing.T) {
	_, mock, s := setupPostgresStore(t)

	expectIdentityCheck(mock, "demo_user", "x@example.com", true)

	_, err := s.Register(context.Background(), types.RegisterUser{
		Username: "demo_user",
		Password: strings.Repeat("a", auth.MaxPasswordBytes+1),
		Email:    "x@example.com",
	})

	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRegister_PasswordTooLong(t *testing.T) {
	_, mock, s := setupPostgresStore(t)

	expectIdentityCheck(mock, "river", "river@example.com", false)

	_, err := s.Register(context.Background(), types.RegisterUser{
		Username: "river",
		Password: strings.Repeat("a", auth.MaxPasswordBytes+1),
		Email:    "river@example.com",
	})

	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	require.NoError(t, err)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	userRows := func() *sqlmock.Rows {
		return sqlmock.NewRows(userRowColumns).AddRow(
			1, DemoUsername, string(hash), DemoEmail, "{alcohol,opioids}", nil, "{}", created,
		)
	}

	t.Run("matching password", func(t *testing.T) {
		_, mock, s := setupPostgresStore(t)
		mock.ExpectQuery(`FROM users WHERE username`).WithArgs(DemoUsername).WillReturnRows(userRows())

		user, ok, err := s.Login(context.Background(), types.Credentials{Username: DemoUsername, Password: DemoPassword})

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, []string{"alcohol", "opioids"}, user.AddictionTypes)
		assert.Equal(t, []string{}, user.EmergencyContacts)
		assert.Nil(t, user.RecoveryStartDate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, mock, s := setupPostgresStore(t)
		mock.ExpectQuery(`FROM users WHERE username`).WithArgs(DemoUsername).WillReturnRows(userRows())

		_, ok, err := s.Login(context.Background(), types.Credentials{Username: DemoUsername, Password: "nope"})

		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		_, mock, s := setupPostgresStore(t)
		mock.ExpectQuery(`FROM users WHERE username`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, ok, err := s.Login(context.Background(), types.Credentials{Username: "ghost", Password: DemoPassword})

		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresGetUser_NotFound(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	mock.ExpectQuery(`FROM users WHERE id`).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	_, err := s.GetUser(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateUser_MergesPatch(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM users WHERE id`).WithArgs(int64(1)).WillReturnRows(
		sqlmock.NewRows(userRowColumns).AddRow(1, DemoUsername, "hash", DemoEmail, "{alcohol}", created, "{}", created),
	)
	mock.ExpectExec(`UPDATE users`).
		WithArgs("new@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	email := "new@example.com"
	contacts := []string{"sponsor"}
	user, err := s.UpdateUser(context.Background(), 1, types.UserPatch{Email: &email, EmergencyContacts: &contacts})

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, []string{"alcohol"}, user.AddictionTypes)
	assert.Equal(t, []string{"sponsor"}, user.EmergencyContacts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateUser_EmailConflict(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM users WHERE id`).WithArgs(int64(8)).WillReturnRows(
		sqlmock.NewRows(userRowColumns).AddRow(8, "sam", "hash", "sam@example.com", "{}", nil, "{}", created),
	)
	mock.ExpectExec(`UPDATE users`).WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})

	email := DemoEmail
	_, err := s.UpdateUser(context.Background(), 8, types.UserPatch{Email: &email})

	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMoodLogs(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO mood_logs`).
		WithArgs(int64(1), 3, "strong", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	empty := ""
	log, err := s.CreateMoodLog(context.Background(), types.NewMoodLog{UserID: 1, Mood: 3, CravingLevel: types.CravingStrong, Notes: &empty})
	require.NoError(t, err)
	assert.Equal(t, int64(12), log.ID)
	assert.Nil(t, log.Notes)

	mock.ExpectQuery(`FROM mood_logs\s+WHERE user_id = \$1\s+ORDER BY timestamp DESC, id DESC\s+LIMIT \$2`).
		WithArgs(int64(1), DefaultMoodLogLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "mood", "craving_level", "notes", "timestamp"}).
			AddRow(12, 1, 3, "strong", nil, ts).
			AddRow(9, 1, 7, "none", "slept well", ts.Add(-time.Hour)))

	logs, err := s.GetMoodLogsByUser(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, types.CravingStrong, logs[0].CravingLevel)
	require.NotNil(t, logs[1].Notes)
	assert.Equal(t, "slept well", *logs[1].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMedication_NotFound(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	mock.ExpectQuery(`FROM medications WHERE id`).WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)

	active := false
	_, err := s.UpdateMedication(context.Background(), 404, types.MedicationPatch{IsActive: &active})

	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMedicationsByUser_ActiveOnly(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	mock.ExpectQuery(`FROM medications WHERE user_id = \$1 AND is_active ORDER BY id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "dosage", "frequency", "next_dose", "is_active"}).
			AddRow(20, 1, "Naltrexone", "50mg", "daily", nil, true))

	meds, err := s.GetMedicationsByUser(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Naltrexone", meds[0].Name)
	assert.Nil(t, meds[0].NextDose)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResources(t *testing.T) {
	columns := []string{"id", "title", "type", "content", "description", "duration", "category", "is_active"}

	t.Run("category filter", func(t *testing.T) {
		_, mock, s := setupPostgresStore(t)
		mock.ExpectQuery(`FROM resources WHERE is_active AND category = \$1`).
			WithArgs("triggers").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(2, "Understanding Triggers", "article", "...", nil, "5 min read", "triggers", true))

		resources, err := s.GetResourcesByCategory(context.Background(), "triggers")

		require.NoError(t, err)
		require.Len(t, resources, 1)
		assert.Equal(t, types.ResourceArticle, resources[0].Type)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty category skips the query", func(t *testing.T) {
		_, mock, s := setupPostgresStore(t)

		resources, err := s.GetResourcesByCategory(context.Background(), "")

		require.NoError(t, err)
		assert.Empty(t, resources)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deactivate missing", func(t *testing.T) {
		_, mock, s := setupPostgresStore(t)
		mock.ExpectQuery(`UPDATE resources SET is_active`).WithArgs(false, int64(50)).WillReturnError(sql.ErrNoRows)

		_, err := s.SetResourceActive(context.Background(), 50, false)

		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepliesOldestFirst(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM community_replies\s+WHERE post_id = \$1\s+ORDER BY timestamp ASC, id ASC`).
		WithArgs(int64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "user_id", "content", "is_anonymous", "timestamp"}).
			AddRow(31, 30, 1, "R1", false, ts).
			AddRow(32, 30, 1, "R2", true, ts.Add(time.Minute)))

	replies, err := s.GetRepliesByPost(context.Background(), 30)

	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, int64(31), replies[0].ID)
	assert.True(t, replies[1].IsAnonymous)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostsNewestFirst(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM community_posts\s+ORDER BY timestamp DESC, id DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "content", "is_anonymous", "timestamp"}).
			AddRow(41, 1, "Day 30", "A month in", false, ts).
			AddRow(40, 2, "Rough night", "Held on", true, ts.Add(-time.Hour)))

	posts, err := s.GetAllCommunityPosts(context.Background())

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, int64(41), posts[0].ID)
	assert.True(t, posts[1].IsAnonymous)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMedicationLogsNewestFirst(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	ts := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM medication_logs\s+WHERE user_id = \$1\s+ORDER BY timestamp DESC, id DESC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "medication_id", "user_id", "taken", "timestamp"}).
			AddRow(52, 20, 1, false, ts).
			AddRow(51, 20, 1, true, ts.Add(-24*time.Hour)))

	logs, err := s.GetMedicationLogsByUser(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, int64(52), logs[0].ID)
	assert.False(t, logs[0].Taken)
	assert.True(t, logs[1].Taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetProfessionalActive(t *testing.T) {
	_, mock, s := setupPostgresStore(t)
	mock.ExpectQuery(`UPDATE professionals SET is_active`).
		WithArgs(false, int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "contact", "availability", "specialization", "is_active"}).
			AddRow(4, "Dr. Emily Chen", "counselor", "phone:555-0123", "Available Today", nil, false))

	professional, err := s.SetProfessionalActive(context.Background(), 4, false)

	require.NoError(t, err)
	assert.False(t, professional.IsActive)
	assert.Nil(t, professional.Specialization)
	require.NoError(t, mock.ExpectationsWereMet())
}
