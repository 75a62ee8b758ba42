package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Error is a failure of a command after its arguments were accepted.
type Error struct {
	Inner error
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Msg, e.Inner)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func WrapError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	return &Error{
		Inner: err,
		Msg:   cmd.Name() + " failed",
	}
}
