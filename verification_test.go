package accounts_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	accounts "github.com/mahibala-njit/user-management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPendingUser(role accounts.UserRole) (*testRepo, uuid.UUID, string) {
	token := accounts.GenerateVerificationToken()

	user := &accounts.User{
		Email:    "pending@example.com",
		Nickname: "pending_person",
		Role:     role,
	}
	user.SetVerificationToken(token)

	repo := newTestRepo(user)
	return repo, firstID(repo), token
}

func TestRedeemVerificationToken(t *testing.T) {
	ctx := context.Background()
	repo, id, token := seedPendingUser(accounts.RoleAnonymous)
	verifier := accounts.NewVerifier(repo)

	ok, err := verifier.Redeem(ctx, id, token)
	require.NoError(t, err)
	assert.True(t, ok)

	stored := repo.users.get(id)
	assert.True(t, stored.EmailVerified)
	assert.Nil(t, stored.VerificationToken)
	assert.Equal(t, accounts.RoleAuthenticated, stored.Role)
}

func TestRedeemVerificationTokenOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo, id, token := seedPendingUser(accounts.RoleAnonymous)
	verifier := accounts.NewVerifier(repo)

	ok, err := verifier.Redeem(ctx, id, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = verifier.Redeem(ctx, id, token)
	require.NoError(t, err)
	assert.False(t, ok, "a token redeems exactly once")
}

func TestRedeemVerificationTokenMismatch(t *testing.T) {
	ctx := context.Background()
	repo, id, token := seedPendingUser(accounts.RoleAnonymous)
	verifier := accounts.NewVerifier(repo)

	// wrong token
	ok, err := verifier.Redeem(ctx, id, "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)

	// wrong account
	ok, err = verifier.Redeem(ctx, uuid.New(), token)
	require.NoError(t, err)
	assert.False(t, ok)

	// empty token never matches
	ok, err = verifier.Redeem(ctx, id, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, repo.users.get(id).EmailVerified)
}

func TestRedeemVerificationTokenKeepsElevatedRole(t *testing.T) {
	ctx := context.Background()
	repo, id, token := seedPendingUser(accounts.RoleManager)
	verifier := accounts.NewVerifier(repo)

	ok, err := verifier.Redeem(ctx, id, token)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, accounts.RoleManager, repo.users.get(id).Role)
}
