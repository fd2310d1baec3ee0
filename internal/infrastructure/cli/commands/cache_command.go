package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-go/internal/app"
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the response cache",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(container),
		newCacheClearCommand(container),
	)

	return cacheCmd
}

// newCacheListCommand creates the 'cache list' subcommand
func newCacheListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCacheEntries(cmd.OutOrStdout(), container)
		},
	}
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clearCache(container); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgCacheCleared)
			return nil
		},
	}
}

// listCacheEntries lists all cache entries
func listCacheEntries(out io.Writer, container *app.Container) error {
	if container.CacheStore == nil {
		return fmt.Errorf(ErrCacheStoreUnavailable)
	}

	entries, err := container.CacheStore.Entries()
	if err != nil {
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoCachedResponses)
		return nil
	}

	fmt.Fprintf(out, "Cache directory: %s\n", container.CacheStore.Dir())
	for _, entry := range entries {
		fmt.Fprintf(out, "%s | %s/%s | %s\n",
			shortKey(entry.Key),
			entry.Provider,
			entry.Model,
			entry.CreatedAt.Local().Format(TimestampFormat))
	}

	return nil
}

// clearCache clears the cache directory
func clearCache(container *app.Container) error {
	if container.CacheStore == nil {
		return fmt.Errorf(ErrCacheStoreUnavailable)
	}

	if err := container.CacheStore.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	return nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
