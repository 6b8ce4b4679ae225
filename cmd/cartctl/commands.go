package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/your-org/cart-sync/internal/domain/cart"
)

// newRootCmd builds the command tree. The returned cleanup releases what the
// command opened and must run after Execute, whether or not it failed.
func newRootCmd() (*cobra.Command, func()) {
	opts := &options{}
	var a *app

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Inspect and change the cart kept in sync with the remote cart service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case "table", "json":
			default:
				return fmt.Errorf("unknown output format %q", opts.output)
			}

			var err error
			a, err = newApp(cmd.Context(), opts, cmd.ErrOrStderr())
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.remoteURL, "remote", "", "remote cart service base URL (overrides CART_REMOTE_URL)")
	flags.StringVar(&opts.session, "session", "", "remote session id (overrides CART_SESSION_ID)")
	flags.StringVar(&opts.storage, "storage", "", "snapshot storage: file, redis or memory (overrides CART_STORAGE)")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr at debug level")

	// a is only set once PersistentPreRunE ran, so every command reads it lazily
	current := func() *app { return a }

	root.AddCommand(
		newShowCmd(current, opts),
		newFetchCmd(current, opts),
		newAddCmd(current, opts),
		newRemoveCmd(current, opts),
		newUpdateCmd(current, opts),
		newConfirmCmd(current, opts),
	)

	cleanup := func() {
		if a != nil {
			a.Close()
			a = nil
		}
	}
	return root, cleanup
}

func newShowCmd(current func() *app, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the locally saved cart without contacting the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return render(cmd.OutOrStdout(), opts.output, current().engine.Snapshot())
		},
	}
}

func newFetchCmd(current func() *app, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Refresh the cart from the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if err := a.engine.Fetch(cmd.Context()); err != nil {
				if !errors.Is(err, cart.ErrRemoteUnavailable) {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "remote unavailable, showing the saved cart")
			}
			return render(cmd.OutOrStdout(), opts.output, a.engine.Snapshot())
		},
	}
}

func newAddCmd(current func() *app, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.engine.Add(cmd.Context(), args[0]); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, a.engine.Snapshot())
		},
	}
}

func newRemoveCmd(current func() *app, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ITEM_ID",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.engine.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, a.engine.Snapshot())
		},
	}
}

func newUpdateCmd(current func() *app, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "update ITEM_ID QUANTITY",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", cart.ErrInvalidQuantity, args[1])
			}

			a := current()
			if err := a.engine.UpdateQuantity(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, a.engine.Snapshot())
		},
	}
}

func newConfirmCmd(current func() *app, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm ITEM_ID",
		Short: "Confirm a cart line for pickup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.engine.ConfirmPickup(cmd.Context(), args[0]); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, a.engine.Snapshot())
		},
	}
}
