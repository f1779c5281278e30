package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type VerifyEmailMessage struct {
	UserID     uuid.UUID `json:"user_id" doc:"Account being verified"`
	Token      string    `json:"token" example:"3q2-8A7hPzXo5cW1kRfTuw" doc:"Email verification token"`
	OnResponse func(r *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

type VerifyEmailResponse struct {
	Verified bool     `json:"verified" example:"true" doc:"Did the token redeem?"`
	Errors   []string `json:"errors" example:"['invalid token']" doc:"Error messages."`
}

type VerifyEmailHandler struct {
	verifier *Verifier
}

func NewVerifyEmailHandler(verifier *Verifier) *VerifyEmailHandler {
	return &VerifyEmailHandler{verifier: verifier}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	verified, err := h.verifier.Redeem(ctx, event.UserID, event.Token)
	if err != nil {
		resp.Errors = append(resp.Errors, "verification failed")
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to redeem verification token")
	}

	// an unknown or spent token is part of the expected flow, not an error
	resp.Verified = verified

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
