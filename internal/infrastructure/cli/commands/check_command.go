package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-go/internal/app"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/shai-go/internal/infrastructure/security"
)

// ExitDangerous is returned by check for a flagged command.
const ExitDangerous = 3

// NewCheckCommand creates the check command, which classifies a command
// without asking any backend.
func NewCheckCommand(container *app.Container) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "check <command>",
		Short: "Classify a shell command against the danger catalogue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := checkClassifier(container, mode)
			if err != nil {
				return err
			}
			dangerous := checkCommand(cmd.OutOrStdout(), classifier, joinArgs(args))
			if dangerous {
				return helpers.ExitError{Code: ExitDangerous}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Match mode override (prefix or substring)")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func checkClassifier(container *app.Container, mode string) (*security.Classifier, error) {
	if mode == "" && container.Classifier != nil {
		return container.Classifier, nil
	}
	if mode == "" {
		mode = string(container.Config.GetMatchMode())
	}
	matchMode := domain.MatchMode(mode)
	if matchMode != domain.MatchPrefix && matchMode != domain.MatchSubstring {
		return nil, fmt.Errorf("invalid --mode %q (want prefix or substring)", mode)
	}
	classifier, err := security.NewClassifier(container.Config.Security.RulesFile, matchMode)
	if err != nil {
		return nil, fmt.Errorf("load danger catalogue: %w", err)
	}
	return classifier, nil
}

// checkCommand prints the segments and verdict and reports whether the
// command is dangerous.
func checkCommand(out io.Writer, classifier *security.Classifier, command string) bool {
	fmt.Fprintf(out, "Mode: %s (%d rules)\n", classifier.Mode(), classifier.Rules())
	fmt.Fprintln(out, "Segments:")
	for i, segment := range security.SplitCommand(command) {
		fmt.Fprintf(out, "  %d. %s\n", i+1, segment)
	}
	verdict := classifier.Classify(command)
	helpers.RenderVerdict(out, verdict)
	return verdict.Dangerous
}
