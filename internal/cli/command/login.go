package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sod-go/internal/cli/connection"
)

// LoginCommand authenticates a user through the daemon.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "authenticate a user",
		ArgsUsage: "USER",
		Action: func(c *cli.Context) error {
			user, err := userArg(c)
			if err != nil {
				return err
			}

			client, err := dial(c)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := commandContext(c)
			defer cancel()

			p := newPrompter(c.App.Reader, c.App.ErrWriter)
			if err := client.Login(ctx, user, p); err != nil {
				if errors.Is(err, connection.ErrRejected) {
					return cli.Exit("login incorrect", 1)
				}
				return err
			}
			fmt.Fprintf(c.App.Writer, "authenticated %s\n", user)
			return nil
		},
	}
}

// LogoutCommand closes the daemon's open session for a user.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:      "logout",
		Usage:     "close a user's session",
		ArgsUsage: "USER",
		Action: func(c *cli.Context) error {
			user, err := userArg(c)
			if err != nil {
				return err
			}

			client, err := dial(c)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := commandContext(c)
			defer cancel()

			if err := client.Logout(ctx, user); err != nil {
				if errors.Is(err, connection.ErrRejected) {
					return cli.Exit("no open session for "+user, 1)
				}
				return err
			}
			fmt.Fprintf(c.App.Writer, "session closed for %s\n", user)
			return nil
		},
	}
}

func userArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s USER", c.App.Name, c.Command.Name), 2)
	}
	return c.Args().First(), nil
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	if d := c.Duration("timeout"); d > 0 {
		return context.WithTimeout(c.Context, d)
	}
	return context.WithCancel(c.Context)
}
