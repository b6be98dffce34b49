// Package admin implements the bootstrap CLI: schema migration, first admin
// account and group membership management straight against the store,
// bypassing the HTTP API and its admin gate.
package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/backoffice/internal/buildinfo"
	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/dmitrijs2005/backoffice/internal/server/models"
	"github.com/dmitrijs2005/backoffice/internal/server/rbac"
	"github.com/dmitrijs2005/backoffice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/backoffice/internal/server/services"
	"github.com/spf13/cobra"
)

const dsnEnv = "POSTGRES_DSN"

// openManager is a seam so tests can share one in-memory store across
// commands.
var openManager = repomanager.New

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type env struct {
	rm     repomanager.RepositoryManager
	users  *services.UserService
	groups *services.GroupService
}

func NewRootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "backoffice-admin",
		Short:         "Back-office bootstrap and membership administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&dsn, "dsn", "d", os.Getenv(dsnEnv), "PostgreSQL DSN (or \"memory\"), defaults to $"+dsnEnv)

	// withEnv opens the store for the duration of one command.
	withEnv := func(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
		rm, err := openManager(dsn)
		if err != nil {
			return err
		}
		defer rm.Close()

		logger := logging.NewJSONLogger(cmd.ErrOrStderr(), slog.LevelWarn)
		e := &env{
			rm:     rm,
			users:  services.NewUserService(rm, nil, rbac.NewMembershipResolver(rm.Groups()), rbac.RequireAny(models.GroupAdmin), logger),
			groups: services.NewGroupService(rm, logger),
		}
		return fn(cmd.Context(), e)
	}

	root.AddCommand(
		newVersionCmd(),
		newMigrateCmd(withEnv),
		newUserCmd(withEnv),
		newGroupCmd(withEnv),
	)
	return root
}

type envRunner func(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
			return nil
		},
	}
}

func newMigrateCmd(withEnv envRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				if err := e.rm.RunMigrations(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newUserCmd(withEnv envRunner) *cobra.Command {
	userCmd := &cobra.Command{Use: "user", Short: "Manage users"}

	var (
		passwordStdin bool
		groupNames    []string
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a user, prompting for the password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			return withEnv(cmd, func(ctx context.Context, e *env) error {
				user, err := e.users.Register(ctx, args[0], string(password), groupNames...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s created (id=%s)\n", user.Name, user.ID)
				return nil
			})
		},
	}
	create.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin instead of the terminal")
	create.Flags().StringSliceVarP(&groupNames, "group", "g", nil, "add the new user to these groups")

	userCmd.AddCommand(create)
	return userCmd
}

func promptPassword(cmd *cobra.Command, fromStdin bool) ([]byte, error) {
	if fromStdin {
		pw, err := readLine(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		if len(pw) == 0 {
			return nil, errors.New("empty password")
		}
		return pw, nil
	}

	pw, err := getPassword(cmd.ErrOrStderr(), "Enter password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword(cmd.ErrOrStderr(), "Repeat password: ")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		common.WipeByteArray(pw)
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}

func newGroupCmd(withEnv envRunner) *cobra.Command {
	groupCmd := &cobra.Command{Use: "group", Short: "Manage groups and memberships"}

	groupCmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an empty group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, func(ctx context.Context, e *env) error {
					g, err := e.groups.Create(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "group %s created (id=%s)\n", g.Name, g.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List groups",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEnv(cmd, func(ctx context.Context, e *env) error {
					groups, err := e.groups.List(ctx, 0, services.MaxListLimit)
					if err != nil {
						return err
					}
					for _, g := range groups {
						fmt.Fprintln(cmd.OutOrStdout(), g.Name)
					}
					return nil
				})
			},
		},
		membershipCmd(withEnv, "add-user <group> <user>...", "Add users to a group", func(e *env) func(context.Context, string, []string) error {
			return e.groups.AddUsers
		}),
		membershipCmd(withEnv, "remove-user <group> <user>...", "Remove users from a group", func(e *env) func(context.Context, string, []string) error {
			return e.groups.RemoveUsers
		}),
	)
	return groupCmd
}

func membershipCmd(withEnv envRunner, use, short string, op func(e *env) func(context.Context, string, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				if err := op(e)(ctx, args[0], args[1:]); err != nil {
					return err
				}
				members, err := e.groups.UsersInGroup(ctx, args[0])
				if err != nil {
					return err
				}
				return printMembers(cmd.OutOrStdout(), args[0], members)
			})
		},
	}
}

func printMembers(w io.Writer, group string, members []*models.User) error {
	if _, err := fmt.Fprintf(w, "%s:", group); err != nil {
		return err
	}
	for _, m := range members {
		fmt.Fprintf(w, " %s", m.Name)
	}
	_, err := fmt.Fprintln(w)
	return err
}
