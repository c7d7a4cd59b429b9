package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pmms-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

func TestSaveReading(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "readings"`)).
		WithArgs("M1", "onoff", 1.0, Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := s.SaveReading(context.Background(), &model.Reading{
		MachineID: "M1",
		Type:      model.TypeOnOff,
		Value:     1,
		Timestamp: now,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindReadingsWindowIsHalfOpenAndAscending(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	start := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "readings" WHERE machine_id = $1 AND timestamp >= $2 AND timestamp < $3 ORDER BY timestamp ASC`)).
		WithArgs("M1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"id", "machine_id", "type", "value", "timestamp"}).
			AddRow(1, "M1", "onoff", 1.0, start.Add(time.Hour)).
			AddRow(2, "M1", "onoff", 0.0, start.Add(2*time.Hour)))

	readings, err := s.FindReadings(context.Background(), "M1", start, end)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.True(t, readings[0].Timestamp.Before(readings[1].Timestamp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMachineNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "machines"`)).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"machine_id"}))

	_, err := s.FindMachine(context.Background(), "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
