package helpers

// ExitError carries an exit code for a command that already printed its
// outcome (check, doctor).
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return "exit status"
}
