package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames(migrationFiles)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0001_transcript_requests.sql",
		"0002_audit_events.sql",
		"0003_notification_settings.sql",
	}, names)
}

func TestMigrateSkipsAppliedVersions(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	existsQuery := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQuery).WithArgs("0001_transcript_requests").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsQuery).WithArgs("0002_audit_events").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsQuery).WithArgs("0003_notification_settings").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS notification_settings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations (version) VALUES ($1)`)).
		WithArgs("0003_notification_settings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	applied, err := Migrate(context.Background(), sqlxDB, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0003_notification_settings"}, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}
