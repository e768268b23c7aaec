package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventsapi/mocks"
	"eventsapi/utils"
)

func TestCreateSuperuser(t *testing.T) {
	utils.PasswordCost = bcrypt.MinCost
	ctx := context.Background()
	users := mocks.NewStore(nil).Users()

	u, err := createSuperuser(ctx, users, "root", "root@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsActive)

	got, err := users.ValidateCredentials(ctx, "root", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = createSuperuser(ctx, users, "root", "", "pw")
	assert.EqualError(t, err, `user "root" already exists`)

	_, err = createSuperuser(ctx, users, "", "", "pw")
	assert.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "createsuperuser"} {
		assert.True(t, names[want], want)
	}

	down, _, err := rootCmd.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.Equal(t, "1", down.Flags().Lookup("steps").DefValue)
}
