package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"email"`, quoteTable("email"))
	assert.Equal(t, `"public"."rule_template"`, quoteTable("public.rule_template"))
	assert.Equal(t, `"bad""; drop table x; --"`, quoteTable(`bad"; drop table x; --`))
}

func TestNormalizeValue(t *testing.T) {
	id := [16]byte{0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8}
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", normalizeValue(id))
	assert.Equal(t, []any{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", int64(1)}, normalizeValue([]any{id, int64(1)}))
	assert.Equal(t, "text", normalizeValue("text"))
}

// 需要真实 Postgres：TOOLBRIDGE_TEST_DSN=postgres://... go test ./internal/storage/database
func TestDB_Integration(t *testing.T) {
	dsn := os.Getenv("TOOLBRIDGE_TEST_DSN")
	if dsn == "" {
		t.Skip("TOOLBRIDGE_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, Options{ConnString: dsn, ReadOnly: true})
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(ctx, "SELECT $1::int AS n, $2::text AS s", []any{7, "x"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(7), rows[0]["n"])
	assert.Equal(t, "x", rows[0]["s"])

	_, err = db.Query(ctx, "CREATE TEMP TABLE should_fail (id int)", nil)
	assert.Error(t, err, "read-only transaction must reject DDL")
}
