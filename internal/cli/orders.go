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

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect orders and move them through their lifecycle",
	}

	var listUser int64
	list := &cobra.Command{
		Use:           "list",
		Short:         "List orders, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				if listUser > 0 {
					orders, err := sf.Orders.FetchOrdersByUser(ctx, listUser)
					if err != nil {
						return err
					}
					rows := make([]domain.OrderWithUsername, len(orders))
					for i, o := range orders {
						rows[i] = domain.OrderWithUsername{Order: o}
					}
					return out.Emit(orders, func(w io.Writer) { printOrders(w, rows) })
				}
				orders, err := sf.Orders.FetchAllOrders(ctx)
				if err != nil {
					return err
				}
				return out.Emit(orders, func(w io.Writer) { printOrders(w, orders) })
			})
		},
	}
	list.Flags().Int64Var(&listUser, "user", 0, "only orders placed by this user id")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:           "show <id>",
		Short:         "Show an order and its items",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("order", args[0])
				if err != nil {
					return err
				}
				d, err := sf.Orders.FetchOrderDetails(ctx, id)
				if err != nil {
					return err
				}
				return out.Emit(d, func(w io.Writer) { printOrderDetails(w, d) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an order to a new status",
		Long: `Move an order to a new status. Allowed moves:

  pending  -> shipping | cancelled
  shipping -> completed | cancelled

"processing" is accepted as another name for shipping.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				id, err := parseID("order", args[0])
				if err != nil {
					return err
				}
				status, err := domain.ParseOrderStatus(args[1])
				if err != nil {
					return err
				}
				if err := sf.Orders.UpdateOrderStatus(ctx, id, status); err != nil {
					return err
				}
				o, err := sf.Orders.FetchOrder(ctx, id)
				if err != nil {
					return err
				}
				return out.Emit(o, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Order %d is now %s\n", o.ID, o.Status)
				})
			})
		},
	})

	var (
		fUser             int64
		fStatus, fKeyword string
		fMin, fMax        string
	)
	filter := &cobra.Command{
		Use:   "filter",
		Short: "Filter orders",
		Long: `Filter orders by user, status, a keyword matched against the shipping
address, note and username, and an inclusive total range. Every criterion
is optional.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, opts, func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error {
				f := domain.OrderFilter{
					UserID:   fUser,
					Keyword:  fKeyword,
					MinTotal: query.ParseBound(fMin),
					MaxTotal: query.ParseBound(fMax),
				}
				if fStatus != "" {
					status, err := domain.ParseOrderStatus(fStatus)
					if err != nil {
						return err
					}
					f.Status = status
				}
				orders, err := sf.Orders.FilterOrders(ctx, f)
				if err != nil {
					return err
				}
				return out.Emit(orders, func(w io.Writer) { printOrders(w, orders) })
			})
		},
	}
	filter.Flags().Int64Var(&fUser, "user", 0, "user id")
	filter.Flags().StringVar(&fStatus, "status", "", "order status")
	filter.Flags().StringVar(&fKeyword, "keyword", "", "text in address, note or username")
	filter.Flags().StringVar(&fMin, "min", "", "minimum total")
	filter.Flags().StringVar(&fMax, "max", "", "maximum total")
	cmd.AddCommand(filter)

	return cmd
}

func printOrders(w io.Writer, orders []domain.OrderWithUsername) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tSTATUS\tTOTAL\tPAYMENT\tCREATED")
	for _, o := range orders {
		user := fmt.Sprint(o.UserID)
		if o.Username != "" {
			user = fmt.Sprintf("%d %s", o.UserID, o.Username)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, user, o.Status, money(o.TotalAmount), o.PaymentMethod, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func printOrderDetails(w io.Writer, d domain.OrderDetails) {
	o := d.Order
	fmt.Fprintf(w, "Order %d (user %d)\n", o.ID, o.UserID)
	fmt.Fprintf(w, "  Status:   %s\n", o.Status)
	fmt.Fprintf(w, "  Created:  %s\n", o.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Payment:  %s\n", o.PaymentMethod)
	if o.ShippingAddress != "" {
		fmt.Fprintf(w, "  Address:  %s\n", o.ShippingAddress)
	}
	if o.Note != "" {
		fmt.Fprintf(w, "  Note:     %s\n", o.Note)
	}
	if next := domain.NextStatuses(o.Status); len(next) > 0 {
		fmt.Fprintf(w, "  Next:     %v\n", next)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tPRICE\tQTY")
	for _, it := range d.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", it.ProductID, it.Name, money(it.Price), it.Quantity)
	}
	tw.Flush()
	fmt.Fprintf(w, "Total: %s\n", money(o.TotalAmount))
}
