package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit schema",
			cfg:  Config{Host: "db", Port: 5432, User: "app", Password: "secret", DBName: "ledger", Schema: "split"},
			want: "postgres://app:secret@db:5432/ledger?search_path=split&sslmode=disable",
		},
		{
			name: "schema defaults to public",
			cfg:  Config{Host: "localhost", Port: 5433, User: "postgres", DBName: "ledger"},
			want: "postgres://postgres:@localhost:5433/ledger?search_path=public&sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ConnString())
		})
	}
}

func TestConfig_ConnStringParses(t *testing.T) {
	passwords := []string{
		"secret",
		"with space",
		`quo'te"s`,
		"p@ss:w/rd?#%",
		`back\slash`,
	}

	for _, password := range passwords {
		t.Run(password, func(t *testing.T) {
			cfg := Config{Host: "db.internal", Port: 6543, User: "ledger app", Password: password, DBName: "ledger", Schema: "split"}
			parsed, err := pgxpool.ParseConfig(cfg.ConnString())
			require.NoError(t, err)
			assert.Equal(t, "db.internal", parsed.ConnConfig.Host)
			assert.Equal(t, uint16(6543), parsed.ConnConfig.Port)
			assert.Equal(t, "ledger app", parsed.ConnConfig.User)
			assert.Equal(t, password, parsed.ConnConfig.Password)
			assert.Equal(t, "ledger", parsed.ConnConfig.Database)
			assert.Equal(t, "split", parsed.ConnConfig.RuntimeParams["search_path"])
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("other")))
	assert.False(t, isUniqueViolation(nil))
}
