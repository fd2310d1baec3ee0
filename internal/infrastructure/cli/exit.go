package cli

import (
	"errors"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitGeneral        = 1
	ExitNoCommandFound = 2
	ExitBlocked        = 3
	ExitTransport      = 4
	ExitEngine         = 5
)

// ExitCode maps an error returned by the command tree to a process exit code.
func ExitCode(err error) int {
	var silent helpers.ExitError
	var transport *domain.TransportError
	var engineErr *domain.EngineError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &silent):
		return silent.Code
	case errors.Is(err, domain.ErrNoCommandFound):
		return ExitNoCommandFound
	case errors.Is(err, domain.ErrCommandBlocked):
		return ExitBlocked
	case errors.As(err, &engineErr):
		return ExitEngine
	case errors.As(err, &transport):
		return ExitTransport
	default:
		return ExitGeneral
	}
}

// IsSilent reports whether err only carries an exit code.
func IsSilent(err error) bool {
	var silent helpers.ExitError
	return errors.As(err, &silent)
}
