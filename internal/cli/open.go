package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/config"
	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/storefront"
)

// formatter builds the OutputFormatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// resolve loads the configuration once and builds the logger from it.
func (o *RootOptions) resolve(cmd *cobra.Command) (*config.Config, error) {
	if o.Config != nil {
		return o.Config, nil
	}
	cfg, err := config.Load(o.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if o.DB != "" {
		cfg.DB = o.DB
	}

	level := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Config = cfg
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, nil
}

// withStorefront opens the configured store, runs fn and closes it. Errors
// from fn are reported through the formatter.
func withStorefront(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, sf *storefront.Storefront, out *OutputFormatter) error) error {
	out := opts.formatter(cmd)

	cfg, err := opts.resolve(cmd)
	if err != nil {
		out.Error(ErrCodeConfig, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "failed to load config", Err: err, Reported: true}
	}
	sc, err := cfg.Storefront(opts.Logger)
	if err != nil {
		return out.Fail(err)
	}

	out.VerboseLog("using database %s", sc.Path)

	ctx := commandContext(cmd)
	sf, err := storefront.Open(ctx, sc)
	if err != nil {
		return out.Fail(err)
	}
	defer sf.Close()

	if err := fn(ctx, sf, out); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return out.Fail(err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseID parses a positive integer id argument.
func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid %s id %q", what, s)
	}
	return id, nil
}

// parseQuantity parses a cart quantity argument.
func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, domain.NewValidationError("invalid quantity %q", s)
	}
	return n, nil
}

// parsePrice parses a decimal money amount.
func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError("invalid price %q", s)
	}
	return d, nil
}

// money renders an amount the way it is stored.
func money(d decimal.Decimal) string {
	return d.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
