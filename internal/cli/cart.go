package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/storefront"
)

// CartView is a user's cart with its computed total.
type CartView struct {
	UserID int64             `json:"user_id"`
	Items  []domain.CartLine `json:"items"`
	Total  decimal.Decimal   `json:"total"`
}

// NewCartCommand creates the cart command group.
func NewCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage shopping carts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <user-id> <product-id> [quantity]",
		Short: "Add a product to a user's cart",
		Long: `Add a product to a user's cart. Adding a product that is already in
the cart increases its quantity. Quantity defaults to 1.`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				userID, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				productID, err := parseID("product", args[1])
				if err != nil {
					return err
				}
				qty := 1
				if len(args) == 3 {
					if qty, err = parseQuantity(args[2]); err != nil {
						return err
					}
				}
				item, err := sf.Carts.AddToCart(ctx, userID, productID, qty)
				if err != nil {
					return err
				}
				return out.Emit(item, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Cart item %d: product %d x %d\n", item.ID, item.ProductID, item.Quantity)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "set <item-id> <quantity>",
		Short:         "Set the quantity of a cart item",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("cart item", args[0])
				if err != nil {
					return err
				}
				qty, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				if err := sf.Carts.UpdateCartItemQuantity(ctx, id, qty); err != nil {
					return err
				}
				return out.Emit(map[string]int64{"id": id, "quantity": int64(qty)}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Cart item %d quantity set to %d\n", id, qty)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "remove <item-id>",
		Short:         "Remove an item from a cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("cart item", args[0])
				if err != nil {
					return err
				}
				if err := sf.Carts.RemoveCartItem(ctx, id); err != nil {
					return err
				}
				return out.Emit(map[string]int64{"removed": id}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Removed cart item %d\n", id)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "show <user-id>",
		Short:         "Show a user's cart with current prices",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				userID, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				lines, err := sf.Carts.FetchCartItemsByUser(ctx, userID)
				if err != nil {
					return err
				}
				view := CartView{UserID: userID, Items: lines, Total: cartTotal(lines)}
				return out.Emit(view, func(w io.Writer) { printCart(w, view) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "clear <user-id>",
		Short:         "Empty a user's cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				userID, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				if err := sf.Carts.ClearCart(ctx, userID); err != nil {
					return err
				}
				return out.Emit(map[string]int64{"cleared": userID}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Cleared cart of user %d\n", userID)
				})
			})
		},
	})

	return cmd
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(opts *RootOptions) *cobra.Command {
	var address, note, payment, token string

	cmd := &cobra.Command{
		Use:   "checkout <user-id>",
		Short: "Turn a user's cart into an order",
		Long: `Place an order from the user's cart at current product prices and
empty the cart, all in one transaction.

Passing --token makes the checkout idempotent: repeating it with the same
token returns the existing order instead of creating another.

Examples:
  storefront checkout 2 --address "12 Lý Thường Kiệt, Hà Nội"
  storefront checkout 2 --payment bank --token 0192f0c4-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				userID, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				orderID, err := sf.Orders.CheckoutFromCart(ctx, domain.CheckoutRequest{
					UserID:          userID,
					ShippingAddress: address,
					Note:            note,
					PaymentMethod:   payment,
					Token:           token,
				})
				if err != nil {
					return err
				}
				o, err := sf.Orders.FetchOrder(ctx, orderID)
				if err != nil {
					return err
				}
				return out.Emit(o, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Placed order %d: total %s, %s\n", o.ID, money(o.TotalAmount), o.Status)
				})
			})
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "shipping address")
	cmd.Flags().StringVar(&note, "note", "", "order note")
	cmd.Flags().StringVar(&payment, "payment", "", "payment method (default cod)")
	cmd.Flags().StringVar(&token, "token", "", "idempotency token")

	return cmd
}

func cartTotal(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func printCart(w io.Writer, view CartView) {
	if len(view.Items) == 0 {
		fmt.Fprintf(w, "Cart of user %d is empty.\n", view.UserID)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tNAME\tPRICE\tQTY\tLINE TOTAL")
	for _, l := range view.Items {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\n", l.ID, l.ProductID, l.Name, money(l.Price), l.Quantity, money(l.LineTotal()))
	}
	tw.Flush()
	fmt.Fprintf(w, "Total: %s\n", money(view.Total))
}
