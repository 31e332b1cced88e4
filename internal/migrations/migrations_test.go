package migrations

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, ok := parseVersion("V12__add_points.sql")
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = parseVersion("12__add_points.sql")
	assert.False(t, ok)
	_, ok = parseVersion("Vx__add_points.sql")
	assert.False(t, ok)
}

func TestListOrdersNumerically(t *testing.T) {
	fsys := fstest.MapFS{
		"V10__later.sql": {Data: []byte("SELECT 1")},
		"V2__second.sql": {Data: []byte("SELECT 1")},
		"V1__first.sql":  {Data: []byte("SELECT 1")},
		"README.md":      {Data: []byte("docs")},
	}
	migs, err := list(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{migs[0].Version, migs[1].Version, migs[2].Version})
}

func TestListRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"V1__a.sql": {Data: []byte("SELECT 1")},
		"V1__b.sql": {Data: []byte("SELECT 1")},
	}
	_, err := list(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestEmbeddedSchemaIsListed(t *testing.T) {
	migs, err := list(Files)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, "V1__schema.sql", migs[0].Name)
}

func TestApplySkipsRecordedVersions(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	fsys := fstest.MapFS{
		"V1__first.sql":  {Data: []byte("CREATE TABLE a (id INT)")},
		"V2__second.sql": {Data: []byte("CREATE TABLE b (id INT)")},
	}
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(2, "V2__second.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ran, err := Apply(context.Background(), db, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"V2__second.sql"}, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}
