package postgres

import (
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectseashield/seashield/pkg/db"
)

func TestMigrationFiles_EmbeddedInitIsFirst(t *testing.T) {
	files, err := migrationFiles(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_init.sql", files[0])
}

func TestMigrationFiles_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.sql":   {Data: []byte("SELECT 2")},
		"migrations/0001_a.sql":   {Data: []byte("SELECT 1")},
		"migrations/README.md":    {Data: []byte("notes")},
		"migrations/0010_c.sql":   {Data: []byte("SELECT 10")},
		"migrations/nested/x.sql": {Data: []byte("SELECT 0")},
	}

	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql", "0010_c.sql"}, files)
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))
	assert.ErrorIs(t, translateError(pgx.ErrNoRows), db.ErrNotFound)
	assert.ErrorIs(t, translateError(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)), db.ErrNotFound)
	assert.ErrorIs(t, translateError(&pgconn.PgError{Code: "23505"}), db.ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))

	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), translateError(fk))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	require.NotNil(t, nullString("x"))
	assert.Equal(t, "x", derefString(nullString("x")))
	assert.Equal(t, "", derefString(nil))
}
