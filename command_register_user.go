package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterUserMessage carries a registration request for batch imports and
// bootstrap tooling. It funnels into the same directory path as interactive
// registration, so the bootstrap rule and uniqueness checks still apply.
type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	// UseHashid derives the record ID deterministically from the email,
	// which lets repeated imports of the same source stay idempotent.
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	directory *Directory
	logger    Logger
}

func NewRegisterUserHandler(directory *Directory) *RegisterUserHandler {
	return &RegisterUserHandler{
		directory: directory,
		logger:    defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	input := CreateUserInput{
		Email:     event.Email,
		Password:  event.Password,
		Nickname:  event.Nickname,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Role:      event.Role,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			input.ID = id
		}
	}

	user, err := h.directory.Create(ctx, input)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration failed")
	}

	h.logger.Debug("registered %s as %s", user.Email, user.ID)
	return nil
}
