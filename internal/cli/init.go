package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/storefront"
)

// InitResult is the output of the init command.
type InitResult struct {
	DB         string `json:"db"`
	Categories int    `json:"categories_seeded"`
	Products   int    `json:"products_seeded"`
	Admin      bool   `json:"admin_seeded"`
}

// NewInitCommand creates the init command.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema and seed an empty database",
		Long: `Create the database schema if needed and seed empty tables.

Categories and products are seeded only when the categories table is
empty; the admin account only when the users table is empty. Running
init twice changes nothing.

Examples:
  storefront init --db shop.db
  storefront init --db shop.db --catalog ./catalog
  storefront init --db shop.db --seed=false`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				res := InitResult{
					DB:         opts.Config.DB,
					Categories: sf.Seeded.Categories,
					Products:   sf.Seeded.Products,
					Admin:      sf.Seeded.Admin,
				}
				return out.Emit(res, func(w io.Writer) {
					if !sf.Seeded.Seeded() {
						fmt.Fprintf(w, "✓ %s ready (nothing to seed)\n", res.DB)
						return
					}
					fmt.Fprintf(w, "✓ %s ready: seeded %s, %s", res.DB,
						plural(res.Categories, "category", "categories"), plural(res.Products, "product", "products"))
					if res.Admin {
						fmt.Fprint(w, " and the admin account")
					}
					fmt.Fprintln(w)
				})
			})
		},
	}
}
