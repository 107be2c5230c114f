package cli

import (
	"errors"
	"fmt"
)

var ErrUsage = errors.New("cli usage error")

// usageError is reported with the command's help in mind: the user can fix
// it by changing flags, config or input.
type usageError struct {
	msg   string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func usageErrorf(cause error, format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...), cause: cause}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Unwrap() error { return e.cause }

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
