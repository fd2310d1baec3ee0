package domain

import "context"

// QueryRequest captures user intent originating from the CLI.
type QueryRequest struct {
	Context         context.Context
	Prompt          string
	Explain         bool
	PreviewOnly     bool
	AutoConfirm     bool
	CopyToClipboard bool
	NoCache         bool
	Debug           bool
}

// QueryResponse is the canonical response propagated back to the CLI.
type QueryResponse struct {
	Prompt             string
	Provider           string
	Raw                string
	Parsed             ParsedCommand
	Verdict            DangerVerdict
	ExecutionPlanned   bool
	ExecutionResult    *ExecutionResult
	ContextInformation ContextSnapshot
	FromCache          bool
}

// ExecutionResult wraps details from the command executor.
type ExecutionResult struct {
	Ran        bool
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMS int64
	Err        error
}

// QueryService exposes the use-case boundary for handling a query.
type QueryService interface {
	Run(QueryRequest) (QueryResponse, error)
}
