package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-go/internal/app"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/commands"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// queryFlags are the per-invocation query switches.
type queryFlags struct {
	explain bool
	preview bool
	yes     bool
	copy    bool
	noCache bool
	debug   bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	spinner := NewSpinner(opts.Stderr)
	progress := helpers.NewProgressBar(opts.Stderr, "local model")

	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:    opts.Verbose,
		ConfigPath: opts.ConfigPath,
		Stdin:      opts.Stdin,
		Stdout:     stopOnWrite{w: opts.Stdout, stop: spinner.Stop},
		Stderr:     stopOnWrite{w: opts.Stderr, stop: spinner.Stop},
		Progress:   progress.Update,
	})
	if err != nil {
		return nil, err
	}

	prompter := NewPrompter(opts.Stdin, opts.Stdout)
	prompter.BeforePrompt = func() {
		spinner.Stop()
		progress.Done()
	}
	container.QueryService.Prompter = prompter
	container.QueryService.Clipboard = NewClipboard()
	container.QueryService.Announce = func(resp domain.QueryResponse) {
		if container.Config.Preferences.PreviewMode == domain.PreviewNever {
			prompter.BeforePrompt()
			return
		}
		prompter.Announce(resp)
	}

	q := &querier{container: container, prompter: prompter, spinner: spinner, progress: progress}

	var flags queryFlags
	queryCmd := &cobra.Command{
		Use:   "query <natural language>",
		Short: "Generate a command from natural language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return q.run(cmd, args, flags)
		},
	}
	bindQueryFlags(queryCmd, &flags)

	var rootFlags queryFlags
	root := &cobra.Command{
		Use:   "shai [natural language]",
		Short: "SHAI - Shell AI assistant",
		Long: "SHAI converts natural language to shell commands. Every command is checked\n" +
			"against a danger catalogue and dangerous ones are never run without a typed confirmation.",
		Args: cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			errOut := cmd.ErrOrStderr()
			for _, warning := range container.Warnings {
				fmt.Fprintln(errOut, "warning:", warning)
			}
			if container.ConfigErr != nil && cmd.Name() != "config" && (cmd.Parent() == nil || cmd.Parent().Name() != "config") {
				fmt.Fprintf(errOut, "warning: %v (run 'shai config validate' or 'shai config reset')\n", container.ConfigErr)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return q.run(cmd, args, rootFlags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindQueryFlags(root, &rootFlags)

	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	root.AddCommand(queryCmd)
	root.AddCommand(commands.NewCheckCommand(container))
	root.AddCommand(commands.NewSetupCommand(container))
	root.AddCommand(commands.NewConfigCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewCacheCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root, nil
}

func bindQueryFlags(cmd *cobra.Command, flags *queryFlags) {
	cmd.Flags().BoolVarP(&flags.explain, "explain", "e", false, "Ask for a short explanation with the command")
	cmd.Flags().BoolVarP(&flags.preview, "preview", "p", false, "Only show the command, do not execute")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Run safe commands without asking (dangerous ones still need confirmation)")
	cmd.Flags().BoolVarP(&flags.copy, "copy", "c", false, "Copy the command to the clipboard")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Skip the response cache")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Print the raw reply and verbose logs")
}

// querier runs one query and renders the outcome.
type querier struct {
	container *app.Container
	prompter  *Prompter
	spinner   *Spinner
	progress  *helpers.ProgressBar
}

func (q *querier) run(cmd *cobra.Command, args []string, flags queryFlags) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	req := domain.QueryRequest{
		Context:         cmd.Context(),
		Prompt:          strings.TrimSpace(strings.Join(args, " ")),
		Explain:         flags.explain,
		PreviewOnly:     flags.preview,
		AutoConfirm:     flags.yes,
		CopyToClipboard: flags.copy,
		NoCache:         flags.noCache,
		Debug:           flags.debug,
	}

	if q.container.Config.RequiresAPIKey() && helpers.IsTerminal(errOut) {
		q.spinner.Start("asking " + q.container.Config.Provider.Name + "...")
	}
	resp, err := q.container.QueryService.Run(req)
	q.spinner.Stop()
	q.progress.Done()

	if flags.debug && resp.Raw != "" {
		fmt.Fprintf(errOut, "--- raw reply (%s) ---\n%s\n---\n", resp.Provider, resp.Raw)
	}

	var noCommand *domain.NoCommandFoundError
	if errors.As(err, &noCommand) {
		helpers.RenderRaw(out, noCommand.Raw)
		return err
	}

	if resp.Parsed.Command != "" {
		if !q.prompter.Shown() && !(resp.ExecutionPlanned && q.container.Config.Preferences.PreviewMode == domain.PreviewNever) {
			helpers.RenderCommand(out, resp)
		}
		if clip := q.container.QueryService.Clipboard; flags.copy && clip != nil && clip.Enabled() {
			fmt.Fprintln(errOut, "Copied to clipboard.")
		}
		if !req.PreviewOnly && err == nil {
			helpers.RenderExecution(errOut, resp)
		}
	}
	return err
}

// stopOnWrite stops the spinner before the first byte of command output.
type stopOnWrite struct {
	w    io.Writer
	stop func()
}

func (s stopOnWrite) Write(p []byte) (int, error) {
	s.stop()
	return s.w.Write(p)
}
