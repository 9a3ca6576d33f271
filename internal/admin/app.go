// Package admin implements the operator commands of shopauth-cli: creating
// users from a terminal and revoking their sessions.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/users"
)

// ErrUsage is returned for an unknown or incomplete command line.
var ErrUsage = errors.New("usage: shopauth-cli register | revoke <email>")

// Sessions is the part of users.Service the commands need.
type Sessions interface {
	Register(ctx context.Context, name, email, password string) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	RevokeSessions(ctx context.Context, userID string) error
}

type App struct {
	sessions Sessions
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(s Sessions, in io.Reader, out io.Writer) *App {
	return &App{sessions: s, reader: bufio.NewReader(in), out: out}
}

// Run dispatches args[0] to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "register":
		return a.Register(ctx)
	case "revoke":
		if len(args) < 2 {
			return ErrUsage
		}
		return a.Revoke(ctx, args[1])
	default:
		return ErrUsage
	}
}

// Register prompts for name, email and a hidden password and creates the user.
func (a *App) Register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	u, err := a.sessions.Register(ctx, name, email, string(password))
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return fmt.Errorf("%s is already registered", email)
		}
		return err
	}

	fmt.Fprintf(a.out, "Created user %s (%s)\n", u.Email, u.ID)
	return nil
}

// Revoke clears the refresh pointer of the user with email, ending the
// session on every device at the next refresh.
func (a *App) Revoke(ctx context.Context, email string) error {
	u, err := a.sessions.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user with email %s", email)
		}
		return err
	}

	if err := a.sessions.RevokeSessions(ctx, u.ID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Revoked sessions of %s\n", u.Email)
	return nil
}
