package seed

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func TestRun(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	logger := slog.New(slog.DiscardHandler)

	res, err := Run(ctx, store, authenticator, logger)
	require.NoError(t, err)
	assert.Len(t, res.Users, 10)
	assert.Len(t, res.Groups, 3)
	require.Len(t, res.Expenses, 4)

	members, err := store.ListGroupMembers(ctx, res.Groups[0].ID)
	require.NoError(t, err)
	assert.Len(t, members, 4)

	// 4000 across four members of the Goa trip
	hotel := res.Expenses[0]
	require.Len(t, hotel.Splits, 4)
	for _, s := range hotel.Splits {
		assert.Equal(t, "1000.00", s.Amount.StringFixed(2))
	}

	// 3000 across three flatmates
	for _, s := range res.Expenses[3].Splits {
		assert.Equal(t, "1000.00", s.Amount.StringFixed(2))
	}

	_, err = authenticator.Authenticate(ctx, "user10@example.com", DemoPassword)
	assert.NoError(t, err)

	t.Run("second run is refused", func(t *testing.T) {
		_, err := Run(ctx, store, authenticator, logger)
		assert.ErrorIs(t, err, ErrAlreadySeeded)
	})
}
