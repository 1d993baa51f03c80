package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/luminaguard/safety-backend/internal/models"
)

// setupPostgresMock returns an AlertService over a Postgres dialect backed by
// sqlmock, for asserting the SQL that SQLite would not show.
func setupPostgresMock(t *testing.T) (*AlertService, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return NewAlertService(db, nil), mock
}

func alertRow(id, owner uuid.UUID, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "status", "longitude", "latitude"}).
		AddRow(id.String(), owner.String(), status, 3.40, 6.45)
}

func TestAlertWritesLockTheAlertRow(t *testing.T) {
	alertID, owner, stranger := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name   string
		status string
		call   func(s *AlertService) error
		want   error
	}{
		{
			name:   "append location",
			status: models.AlertStatusActive,
			call: func(s *AlertService) error {
				_, err := s.AppendLocation(alertID, stranger, ptr(3.41), ptr(6.46))
				return err
			},
			want: ErrNotAlertOwner,
		},
		{
			name:   "resolve",
			status: models.AlertStatusActive,
			call: func(s *AlertService) error {
				_, err := s.Resolve(alertID, stranger, "")
				return err
			},
			want: ErrNotAlertOwner,
		},
		{
			name:   "respond",
			status: models.AlertStatusResolved,
			call: func(s *AlertService) error {
				_, err := s.Respond(alertID, stranger)
				return err
			},
			want: ErrAlertNotActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupPostgresMock(t)
			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT \* FROM "alerts" WHERE id = \$1 .*FOR UPDATE`).
				WillReturnRows(alertRow(alertID, owner, tt.status))
			mock.ExpectRollback()

			err := tt.call(s)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
