package execx

import "fmt"

type ExecutionError struct {
	Inner   error
	Message string
	// ExitCode is -1 when the process did not exit normally.
	ExitCode int
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error executing %s: %v", e.Message, e.Inner)
}

func (e *ExecutionError) Unwrap() error {
	return e.Inner
}

func NewExecutionError(err error, msg string) error {
	return &ExecutionError{Inner: err, Message: msg, ExitCode: -1}
}
