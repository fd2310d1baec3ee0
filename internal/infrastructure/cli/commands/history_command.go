package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-go/internal/app"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the command audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, domain.DefaultHistoryLimit, "")
		},
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, limit, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	return cmd
}

// newHistorySearchCommand creates the 'history search' subcommand
func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search prompts, commands and notes for a keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := joinArgs(args)
			if query == "" {
				return fmt.Errorf(ErrQueryRequired)
			}
			return listHistoryEntries(cmd.OutOrStdout(), container, searchLimit, query)
		},
	}

	cmd.Flags().IntVar(&searchLimit, "limit", domain.DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clearHistory(container); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := exportHistory(container, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", args[0])
			return nil
		},
	}
}

// listHistoryEntries prints entries, optionally filtered by a keyword
func listHistoryEntries(out io.Writer, container *app.Container, limit int, query string) error {
	store := container.HistoryStore
	if store == nil {
		return fmt.Errorf(ErrHistoryStoreUnavailable)
	}

	records, err := store.Records(limit, query)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}

	helpers.RenderHistory(out, records)
	return nil
}

// clearHistory clears the history store
func clearHistory(container *app.Container) error {
	if container.HistoryStore == nil {
		return fmt.Errorf(ErrHistoryStoreUnavailable)
	}

	if err := container.HistoryStore.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// exportHistory exports history to a JSONL file
func exportHistory(container *app.Container, path string) error {
	store := container.HistoryStore
	if store == nil {
		return fmt.Errorf(ErrHistoryStoreUnavailable)
	}

	if err := store.ExportJSON(path); err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}

	return nil
}
