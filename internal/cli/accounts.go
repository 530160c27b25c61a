package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/storefront"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List users by id",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				users, err := sf.Accounts.ListUsers(ctx)
				if err != nil {
					return err
				}
				return out.Emit(users, func(w io.Writer) { printUsers(w, users) })
			})
		},
	})

	var addPassword, addRole string
	add := &cobra.Command{
		Use:           "add <username>",
		Short:         "Register a user",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				u, err := sf.Accounts.AddUser(ctx, args[0], addPassword, domain.Role(addRole))
				if err != nil {
					return err
				}
				return out.Emit(u, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added %s %d %q\n", u.Role, u.ID, u.Username)
				})
			})
		},
	}
	add.Flags().StringVar(&addPassword, "password", "", "account password")
	add.Flags().StringVar(&addRole, "role", string(domain.RoleUser), "account role (user|admin)")
	cmd.AddCommand(add)

	var loginPassword string
	login := &cobra.Command{
		Use:           "login <username>",
		Short:         "Check a username and password",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				u, err := sf.Accounts.GetUserByCredentials(ctx, args[0], loginPassword)
				if err != nil {
					return err
				}
				if u == nil {
					out.Error(ErrCodeBadCredentials, "invalid username or password", nil)
					return &ExitError{Code: ExitFailure, Message: "invalid username or password", Reported: true}
				}
				return out.Emit(u, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Logged in as %s (id %d, %s)\n", u.Username, u.ID, u.Role)
				})
			})
		},
	}
	login.Flags().StringVar(&loginPassword, "password", "", "account password")
	cmd.AddCommand(login)

	cmd.AddCommand(&cobra.Command{
		Use:           "set-role <id> <role>",
		Short:         "Change a user's role",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				if err := sf.Accounts.UpdateUserRole(ctx, id, domain.Role(args[1])); err != nil {
					return err
				}
				u, err := sf.Accounts.GetUser(ctx, id)
				if err != nil {
					return err
				}
				return out.Emit(u, func(w io.Writer) {
					fmt.Fprintf(w, "✓ User %d is now %s\n", u.ID, u.Role)
				})
			})
		},
	})

	var updUsername, updPassword, updRole string
	upd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user's profile",
		Long: `Update a user's username, role or password. Omitted flags keep the
stored values; the password changes only when --password is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				current, err := sf.Accounts.GetUser(ctx, id)
				if err != nil {
					return err
				}

				req := domain.UserUpdate{ID: id, Username: current.Username, Role: current.Role}
				flags := cmd.Flags()
				if flags.Changed("username") {
					req.Username = updUsername
				}
				if flags.Changed("role") {
					req.Role = domain.Role(updRole)
				}
				if flags.Changed("password") {
					req.Password = updPassword
				}

				if err := sf.Accounts.UpdateUser(ctx, req); err != nil {
					return err
				}
				u, err := sf.Accounts.GetUser(ctx, id)
				if err != nil {
					return err
				}
				return out.Emit(u, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Updated user %d\n", u.ID)
				})
			})
		},
	}
	upd.Flags().StringVar(&updUsername, "username", "", "new username")
	upd.Flags().StringVar(&updPassword, "password", "", "new password")
	upd.Flags().StringVar(&updRole, "role", "", "new role (user|admin)")
	cmd.AddCommand(upd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Long: `Delete a user and their cart. The admin account and users with
orders cannot be deleted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				if err := sf.Accounts.DeleteUser(ctx, id); err != nil {
					return err
				}
				return out.Emit(map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Deleted user %d\n", id)
				})
			})
		},
	})

	return cmd
}

func printUsers(w io.Writer, users []domain.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.Role)
	}
	tw.Flush()
}
