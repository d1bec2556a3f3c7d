// Package cli is the cartctl command tree: a storefront client session run
// from the terminal.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Store   string // "redis" | "memory" | "none"
	APIURL  string

	// connect builds the session; tests replace it.
	connect func(*RootOptions) (*session, error)
}

var (
	ValidFormats = []string{"text", "json"}
	ValidStores  = []string{"redis", "memory", "none"}
)

// NewRootCommand creates the root command for cartctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{connect: connect})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "cartctl - storefront cart client",
		Long:  "A storefront client session: resolves the current cart, mirrors it locally and edits it optimistically.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !oneOf(opts.Format, ValidFormats) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !oneOf(opts.Store, ValidStores) {
				return fmt.Errorf("invalid store %q: must be one of %v", opts.Store, ValidStores)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "redis", "where the cart id is kept (redis|memory|none)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api", "", "storefront API base URL (default from API_BASE_URL)")

	cmd.AddCommand(
		newInitCommand(opts),
		newShowCommand(opts),
		newAddCommand(opts),
		newQtyCommand(opts),
		newRemoveCommand(opts),
		newDiscountCommand(opts),
		newCheckoutCommand(opts),
		newWatchCommand(opts),
		newProductsCommand(opts),
	)

	return cmd
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
