package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/gateway"
)

func usersCommand(env *Env) *Command {
	return &Command{
		Name:    "users",
		Summary: "Manage accounts (admin only)",
		Subcommands: []*Command{
			usersListCommand(env),
			usersCreateCommand(env),
			usersRoleCommand(env),
			usersDeleteCommand(env),
		},
	}
}

func (e *Env) admin(ctx context.Context) error {
	actor, err := e.signedIn(ctx)
	if err != nil {
		return err
	}
	if !auth.Can(actor, auth.ActionManageUsers, nil) {
		return fmt.Errorf("a %s cannot manage users", auth.EffectiveRole(actor))
	}
	return nil
}

func usersListCommand(env *Env) *Command {
	return &Command{
		Name:    "list",
		Summary: "List every account",
		Run: func(ctx context.Context, _ []string) error {
			if err := env.admin(ctx); err != nil {
				return err
			}
			users, err := env.App.Users.FetchAll(ctx)
			if err != nil {
				return err
			}
			RenderUsers(env.Out, users)
			return nil
		},
	}
}

func usersCreateCommand(env *Env) *Command {
	var req gateway.CreateUserRequest
	var role string
	return &Command{
		Name:    "create",
		Summary: "Create an account with any role",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			fs.StringVar(&req.FirstName, "first-name", "", "first name")
			fs.StringVar(&req.LastName, "last-name", "", "last name")
			fs.StringVar(&req.Email, "email", "", "account email")
			fs.StringVar(&req.Password, "password", os.Getenv("TICKETDESK_NEW_PASSWORD"), "initial password (default $TICKETDESK_NEW_PASSWORD)")
			fs.StringVar(&role, "role", string(domain.RoleUser), "USER, SUPPORT_AGENT or ADMIN")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
				return errors.New("--first-name, --last-name, --email and --password are required")
			}
			parsed, ok := domain.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			req.Role = parsed
			if err := env.admin(ctx); err != nil {
				return err
			}
			user, err := env.App.Users.Create(ctx, req)
			if err != nil {
				return err
			}
			RenderUsers(env.Out, []domain.UserProfile{*user})
			return nil
		},
	}
}

func usersRoleCommand(env *Env) *Command {
	const usage = "ticketdesk users role <id> <role>"
	return &Command{
		Name:    "role",
		Summary: "Change an account's role",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, 2, usage); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			role, ok := domain.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q", args[1])
			}
			if err := env.admin(ctx); err != nil {
				return err
			}
			user, err := env.App.Users.UpdateRole(ctx, id, role)
			if err != nil {
				return err
			}
			RenderUsers(env.Out, []domain.UserProfile{*user})
			return nil
		},
	}
}

func usersDeleteCommand(env *Env) *Command {
	const usage = "ticketdesk users delete <id>"
	return &Command{
		Name:    "delete",
		Summary: "Delete an account",
		Usage:   usage,
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, 1, usage); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := env.admin(ctx); err != nil {
				return err
			}
			message, err := env.App.Users.Delete(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Out, message)
			return nil
		},
	}
}
