package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-go/internal/app"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.DoctorService == nil {
				return fmt.Errorf(ErrDoctorUnavailable)
			}

			report, err := container.DoctorService.Run(cmd.Context())
			if err != nil {
				return err
			}

			helpers.RenderHealthReport(cmd.OutOrStdout(), report)
			if report.Failed() {
				return helpers.ExitError{Code: 1}
			}
			return nil
		},
	}
}
