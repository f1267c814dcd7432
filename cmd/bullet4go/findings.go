package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ammar0144/bullet4go/internal/cli"
	"github.com/ammar0144/bullet4go/pkg/redis"
)

var findingsLimit int64

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Read stored findings",
}

var findingsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent request summaries",
	Example: `  # Show the last 20 requests that had findings
  bullet4go findings recent --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *redis.Manager) error {
			summaries, err := store.RecentSummaries(ctx, findingsLimit)
			if err != nil {
				return cli.StoreError("reading recent summaries", err)
			}
			w := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(w, "no summaries recorded")
				return nil
			}
			for _, s := range summaries {
				cli.RenderSummary(w, s)
			}
			return nil
		})
	},
}

var findingsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank findings by the number of requests that reported them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *redis.Manager) error {
			counts, err := store.TopFindings(ctx, findingsLimit)
			if err != nil {
				return cli.StoreError("reading top findings", err)
			}
			cli.RenderTop(cmd.OutOrStdout(), counts)
			return nil
		})
	},
}

var findingsShowCmd = &cobra.Command{
	Use:   "show <request-id>",
	Short: "Show the summary of one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *redis.Manager) error {
			summary, err := store.GetSummary(ctx, args[0])
			if err != nil {
				return cli.StoreError(fmt.Sprintf("reading summary %s", args[0]), err)
			}
			cli.RenderSummary(cmd.OutOrStdout(), *summary)
			return nil
		})
	},
}

var findingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored summaries and counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *redis.Manager) error {
			if err := store.Clear(ctx); err != nil {
				return cli.StoreError("clearing findings", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared keys under %q\n", store.Config().KeyPrefix)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{findingsRecentCmd, findingsTopCmd} {
		c.Flags().Int64Var(&findingsLimit, "limit", 10, "maximum number of entries")
	}
	findingsCmd.AddCommand(findingsRecentCmd, findingsTopCmd, findingsShowCmd, findingsClearCmd)
}

// withStore opens the findings store for the duration of fn
func withStore(ctx context.Context, fn func(context.Context, *redis.Manager) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Redis.Enabled {
		return cli.ConfigError("findings store", redis.ErrStoreDisabled)
	}

	store, err := redis.NewManager(&cfg.Redis)
	if err != nil {
		return cli.ConfigError("creating findings store", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing findings store", zap.Error(err))
		}
	}()

	if err := store.Ping(ctx); err != nil {
		return cli.StoreError("connecting to findings store", err)
	}
	logger.Debug("connected to findings store", zap.String("addr", cfg.Redis.GetAddr()))
	return fn(ctx, store)
}
