package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgError indicates a command-line argument could not be used.
type ArgError struct {
	Arg     string // the argument name, e.g. "position"
	Value   string // what was given
	Message string // what went wrong
	Hint    string // optional suggestion
}

func (e *ArgError) Error() string {
	msg := fmt.Sprintf("invalid %s %q: %s", e.Arg, e.Value, e.Message)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

// ParsePosition converts a 1-based cart position as typed by the user into
// a 0-based index.
func ParsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, &ArgError{
			Arg:     "position",
			Value:   s,
			Message: "must be a whole number starting at 1",
			Hint:    "Run `verso show` to see cart positions.",
		}
	}
	return n - 1, nil
}

// FormatError returns a user-friendly error message.
// It prefixes the error with "error: " for consistent CLI output.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return Red("error:") + " " + err.Error()
}

// FormatWarning returns a message for a condition that did not stop the
// command, prefixed with "warning: ".
func FormatWarning(err error) string {
	if err == nil {
		return ""
	}
	return Yellow("warning:") + " " + err.Error()
}
