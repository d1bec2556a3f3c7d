package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storefront/internal/domain"
)

// run opens a session, resolves the cart and hands both to fn.
func run(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := opts.connect(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.boot.Run(ctx); err != nil {
		return err
	}
	return fn(ctx, s)
}

func newInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Resolve the current cart, creating one if needed, and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				fmt.Fprintln(cmd.OutOrStdout(), s.cache.ID())
				return nil
			})
		},
	}
}

func newShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				return printCart(cmd.OutOrStdout(), opts.Format, s.cache.Current())
			})
		},
	}
}

func newAddCommand(opts *RootOptions) *cobra.Command {
	var (
		quantity    int
		sellingPlan string
	)
	cmd := &cobra.Command{
		Use:   "add <merchandise-id>",
		Short: "Add a product variant to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				op, err := s.cache.Add(ctx, domain.LineInput{MerchandiseID: args[0], Quantity: quantity, SellingPlanID: sellingPlan})
				if err != nil {
					return err
				}
				if err := op.Wait(ctx); err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), opts.Format, s.cache.Current())
			})
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "quantity to add")
	cmd.Flags().StringVar(&sellingPlan, "selling-plan", "", "selling plan id for a subscription")
	return cmd
}

func newQtyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "qty <line-id> <quantity>",
		Short: "Set a line's quantity (clamped to what is available)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q is not a number", args[1])
			}
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				op, err := s.cache.UpdateQuantity(ctx, args[0], quantity)
				if err != nil {
					return err
				}
				if err := op.Wait(ctx); err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), opts.Format, s.cache.Current())
			})
		},
	}
}

func newRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <line-id>...",
		Short: "Remove lines from the cart",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				op, err := s.cache.Remove(ctx, args...)
				if err != nil {
					return err
				}
				if err := op.Wait(ctx); err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), opts.Format, s.cache.Current())
			})
		},
	}
}

func newDiscountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discount",
		Short: "Win a discount code and apply it to the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				code, err := s.acquirer.AcquireAndApply(ctx)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return printJSON(cmd.OutOrStdout(), map[string]any{"code": code, "cart": s.cache.Current()})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied discount %s\n", code)
				return printCart(cmd.OutOrStdout(), opts.Format, s.cache.Current())
			})
		},
	}
}

func newCheckoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Print the checkout URL for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				url, err := s.cache.TriggerCheckout(ctx)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return printJSON(cmd.OutOrStdout(), map[string]string{"checkoutUrl": url})
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}

func newWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the cart every time it changes, following cart switches made elsewhere",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd, func(ctx context.Context, s *session) error {
				stop := s.boot.Follow(ctx)
				defer stop()

				snapshots := make(chan domain.Cart, 16)
				unsubscribe := s.cache.Subscribe(func(c domain.Cart) {
					select {
					case snapshots <- c:
					case <-ctx.Done():
					}
				})
				defer unsubscribe()

				for {
					select {
					case <-ctx.Done():
						return nil
					case c := <-snapshots:
						if err := printCart(cmd.OutOrStdout(), opts.Format, c); err != nil {
							return err
						}
					}
				}
			})
		},
	}
}

func newProductsCommand(opts *RootOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "products [query | handle]",
		Short: "List catalog products, or show one by handle or id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if id != "" {
				p, err := s.remote.ProductByID(ctx, id)
				if err != nil {
					return err
				}
				return printProducts(cmd.OutOrStdout(), opts.Format, []domain.Product{p})
			}
			if len(args) == 1 {
				p, err := s.remote.ProductByHandle(ctx, args[0])
				if err == nil {
					return printProducts(cmd.OutOrStdout(), opts.Format, []domain.Product{p})
				}
				if !errors.Is(err, domain.ErrNotFound) {
					return err
				}
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			products, err := s.remote.Products(ctx, query)
			if err != nil {
				return err
			}
			return printProducts(cmd.OutOrStdout(), opts.Format, products)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "show the product with this backend id")
	return cmd
}
