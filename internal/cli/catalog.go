package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/query"
	"github.com/roach88/storefront/internal/storefront"
)

// NewCategoriesCommand creates the categories command group.
func NewCategoriesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and manage product categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List categories by id",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				cats, err := sf.Catalog.ListCategories(ctx)
				if err != nil {
					return err
				}
				return out.Emit(cats, func(w io.Writer) { printCategories(w, cats) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "add <name>",
		Short:         "Add a category",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				c, err := sf.Catalog.AddCategory(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Emit(c, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added category %d %q\n", c.ID, c.Name)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "rename <id> <name>",
		Short:         "Rename a category",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("category", args[0])
				if err != nil {
					return err
				}
				if err := sf.Catalog.RenameCategory(ctx, id, args[1]); err != nil {
					return err
				}
				c, err := sf.Catalog.GetCategory(ctx, id)
				if err != nil {
					return err
				}
				return out.Emit(c, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Renamed category %d to %q\n", c.ID, c.Name)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. A category that still has products cannot be
deleted; move or delete its products first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("category", args[0])
				if err != nil {
					return err
				}
				if err := sf.Catalog.DeleteCategory(ctx, id); err != nil {
					return err
				}
				return out.Emit(map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Deleted category %d\n", id)
				})
			})
		},
	})

	return cmd
}

// productFlags holds the editable product fields.
type productFlags struct {
	Name       string
	Price      string
	Image      string
	CategoryID int64
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Name, "name", "", "product name")
	cmd.Flags().StringVar(&f.Price, "price", "", "unit price, e.g. 250000 or 19.99")
	cmd.Flags().StringVar(&f.Image, "image", "", "image file name (default default.png)")
	cmd.Flags().Int64Var(&f.CategoryID, "category", 0, "category id")
}

// NewProductsCommand creates the products command group.
func NewProductsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List, search and manage products",
	}

	var listCategory int64
	list := &cobra.Command{
		Use:           "list",
		Short:         "List products, optionally within one category",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				var (
					ps  []domain.Product
					err error
				)
				if listCategory > 0 {
					ps, err = sf.Catalog.ListProductsByCategory(ctx, listCategory)
				} else {
					ps, err = sf.Catalog.ListProducts(ctx)
				}
				if err != nil {
					return err
				}
				return out.Emit(ps, func(w io.Writer) { printProducts(w, ps) })
			})
		},
	}
	list.Flags().Int64Var(&listCategory, "category", 0, "only products in this category id")
	cmd.AddCommand(list)

	var add productFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Example: `  storefront products add --name "Áo thun" --price 250000 --category 1
  storefront products add --name "Mũ" --price 120000 --image mu.png --category 4`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				price, err := parsePrice(add.Price)
				if err != nil {
					return err
				}
				p, err := sf.Catalog.AddProduct(ctx, domain.ProductInput{
					Name:       add.Name,
					Price:      price,
					Image:      add.Image,
					CategoryID: add.CategoryID,
				})
				if err != nil {
					return err
				}
				return out.Emit(p, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added product %d %q at %s\n", p.ID, p.Name, money(p.Price))
				})
			})
		},
	}
	add.register(addCmd)
	cmd.AddCommand(addCmd)

	var upd productFlags
	updCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product",
		Long: `Update a product. Only the fields whose flags are given change; the
rest keep their stored values. Existing orders keep the price they were
placed at.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("product", args[0])
				if err != nil {
					return err
				}
				p, err := sf.Catalog.GetProduct(ctx, id)
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("name") {
					p.Name = upd.Name
				}
				if flags.Changed("price") {
					if p.Price, err = parsePrice(upd.Price); err != nil {
						return err
					}
				}
				if flags.Changed("image") {
					p.Image = upd.Image
				}
				if flags.Changed("category") {
					p.CategoryID = upd.CategoryID
				}

				if err := sf.Catalog.UpdateProduct(ctx, p); err != nil {
					return err
				}
				if p, err = sf.Catalog.GetProduct(ctx, id); err != nil {
					return err
				}
				return out.Emit(p, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Updated product %d\n", p.ID)
				})
			})
		},
	}
	upd.register(updCmd)
	cmd.AddCommand(updCmd)

	cmd.AddCommand(&cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("product", args[0])
				if err != nil {
					return err
				}
				if err := sf.Catalog.DeleteProduct(ctx, id); err != nil {
					return err
				}
				return out.Emit(map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Deleted product %d\n", id)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "search <keyword>",
		Short: "Search products by name or category name",
		Long: `Search products whose name or category name contains the keyword.
Matching ignores case and Unicode normalization form. A blank keyword
lists every product.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				ps, err := sf.Catalog.SearchByNameOrCategory(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Emit(ps, func(w io.Writer) { printProducts(w, ps) })
			})
		},
	})

	var name, minPrice, maxPrice string
	filter := &cobra.Command{
		Use:   "filter",
		Short: "Filter products by name and price range",
		Long: `Filter products by a name substring and an inclusive price range.
Blank or malformed bounds are ignored.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				ps, err := sf.Catalog.Filter(ctx, domain.ProductFilter{
					NamePattern: name,
					MinPrice:    query.ParseBound(minPrice),
					MaxPrice:    query.ParseBound(maxPrice),
				})
				if err != nil {
					return err
				}
				return out.Emit(ps, func(w io.Writer) { printProducts(w, ps) })
			})
		},
	}
	filter.Flags().StringVar(&name, "name", "", "name substring")
	filter.Flags().StringVar(&minPrice, "min", "", "minimum price")
	filter.Flags().StringVar(&maxPrice, "max", "", "maximum price")
	cmd.AddCommand(filter)

	return cmd
}

func printCategories(w io.Writer, cats []domain.Category) {
	if len(cats) == 0 {
		fmt.Fprintln(w, "No categories.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, c := range cats {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
	}
	tw.Flush()
}

func printProducts(w io.Writer, ps []domain.Product) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "No products.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tIMAGE")
	for _, p := range ps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.Name, money(p.Price), p.CategoryID, p.Image)
	}
	tw.Flush()
}
