package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Verifier redeems email verification tokens. Redemption marks the account
// verified, consumes the token, and promotes an anonymous account to an
// authenticated one.
type Verifier struct {
	repo   RepositoryManager
	logger Logger
}

// NewVerifier returns a new Verifier over the given repositories.
func NewVerifier(repo RepositoryManager) *Verifier {
	return &Verifier{
		repo:   repo,
		logger: defLogger{},
	}
}

func (v *Verifier) WithLogger(logger Logger) *Verifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Redeem consumes the token for the given account and reports whether it
// matched a pending verification. A wrong id, an unknown token, and an
// already redeemed token all simply read as false; the result never says
// why.
func (v *Verifier) Redeem(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	var verified *User

	err := v.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := v.repo.Users().RedeemVerificationToken(ctx, tx, id, token)
		if err != nil {
			return err
		}
		verified = user
		return nil
	})
	if err != nil {
		v.logger.Error("verification redeem failed: %v", err)
		return false, err
	}

	if verified == nil {
		return false, nil
	}

	v.logger.Info("account %s verified", verified.Email)
	return true, nil
}
