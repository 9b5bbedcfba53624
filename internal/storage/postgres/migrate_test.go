package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/config"
)

func TestMigrations_Ordered(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "001_core", ms[0].Version)
	assert.Equal(t, "002_crm", ms[1].Version)
	assert.Contains(t, ms[0].SQL, "create table if not exists daily_schedules")
	assert.Contains(t, ms[1].SQL, "create table if not exists payments")
}

func TestMigrate_SkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select version from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("001_core"))
	mock.ExpectBegin()
	mock.ExpectExec("create table if not exists clients").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into schema_migrations").WithArgs("002_crm").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"002_crm"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select version from schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("create table if not exists projects").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	applied, err := Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "apply 001_core: permission denied")
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://x", DSN(&config.DatabaseConfig{DSN: "postgres://x"}))
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=donna sslmode=disable",
		DSN(&config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "donna"}))
}
