package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-go/internal/app"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
)

// NewSetupCommand creates the setup command. It selects a backend, saves the
// choice and, for the local engine, downloads and loads the model.
func NewSetupCommand(container *app.Container) *cobra.Command {
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Choose and prepare a backend",
	}

	setupCmd.AddCommand(
		newSetupLocalCommand(container),
		newSetupHostedCommand(container, domain.ProviderOpenAI, "OPENAI_API_KEY"),
		newSetupHostedCommand(container, domain.ProviderGemini, "GEMINI_API_KEY"),
	)

	return setupCmd
}

// newSetupLocalCommand creates the 'setup local' subcommand
func newSetupLocalCommand(container *app.Container) *cobra.Command {
	var model, host string

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Use the local engine; downloads the model if needed and clears a previous failure",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setupBaseConfig(cmd.Context(), cmd.ErrOrStderr(), container)
			if err != nil {
				return err
			}
			if err := cfg.SetProvider(string(domain.ProviderLocal), ""); err != nil {
				return err
			}
			if model != "" {
				cfg.LocalEngine.Model = model
			}
			if host != "" {
				cfg.LocalEngine.Host = host
			}
			if err := helpers.SaveConfigWithValidation(container, cfg); err != nil {
				return err
			}
			return prepareLocalEngine(cmd.Context(), cmd.OutOrStdout(), container, cfg)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model to pull (default "+domain.DefaultLocalModel+")")
	cmd.Flags().StringVar(&host, "host", "", "Local engine URL (default "+domain.DefaultLocalHost+")")
	return cmd
}

// newSetupHostedCommand creates 'setup openai' and 'setup gemini'
func newSetupHostedCommand(container *app.Container, kind domain.ProviderKind, conventionalEnv string) *cobra.Command {
	var model, endpoint, authEnv string

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("Use the hosted %s API", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setupBaseConfig(cmd.Context(), cmd.ErrOrStderr(), container)
			if err != nil {
				return err
			}
			if err := cfg.SetProvider(string(kind), model); err != nil {
				return err
			}
			if endpoint != "" {
				cfg.Provider.Endpoint = endpoint
			}
			if authEnv != "" {
				cfg.Provider.AuthEnvVar = authEnv
			}
			if err := helpers.SaveConfigWithValidation(container, cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider set to %s (model %s)\n", kind, cfg.GetModel())
			if cfg.ResolveAPIKey() == "" {
				env := conventionalEnv
				if cfg.Provider.AuthEnvVar != "" {
					env = cfg.Provider.AuthEnvVar
				}
				fmt.Fprintf(out, "No API key found. Export %s before running a query.\n", env)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Custom API endpoint")
	cmd.Flags().StringVar(&authEnv, "auth-env", "", "Environment variable holding the API key")
	return cmd
}

// setupBaseConfig returns the stored config, or the defaults when it could not
// be loaded.
func setupBaseConfig(ctx context.Context, errOut io.Writer, container *app.Container) (domain.Config, error) {
	if container.ConfigLoader == nil {
		return domain.Config{}, fmt.Errorf("config loader unavailable")
	}
	cfg, err := container.ConfigLoader.Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "warning: %v; starting from defaults\n", err)
		return container.Config, nil
	}
	return cfg, nil
}

// prepareLocalEngine resets any sticky failure, then downloads and loads the model.
func prepareLocalEngine(ctx context.Context, out io.Writer, container *app.Container, cfg domain.Config) error {
	lifecycle, _ := app.NewEngine(cfg, container.Logger)
	if err := lifecycle.Reset(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Preparing %s at %s\n", cfg.GetModel(), cfg.GetLocalHost())
	if err := lifecycle.Setup(ctx, container.Progress); err != nil {
		return err
	}
	if _, err := lifecycle.EnsureReady(ctx, container.Progress); err != nil {
		return err
	}
	fmt.Fprintln(out, "Local engine ready.")
	return nil
}
