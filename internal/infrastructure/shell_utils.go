package infrastructure

import "strings"

// ShellEscape quotes a string for safe display as part of a shell command
// line. It exists for logging only; exec.Command passes arguments directly
// and needs no quoting.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t'\"$`\\!*?[](){}|;<>&~#%\n\r") {
		return s
	}

	var result strings.Builder
	result.WriteString("'")
	for _, c := range s {
		if c == '\'' {
			// end quote, escaped quote, start quote
			result.WriteString(`'"'"'`)
		} else {
			result.WriteRune(c)
		}
	}
	result.WriteString("'")
	return result.String()
}

// ShellEscapeCommand renders a binary and its arguments as one shell-safe
// command line for log output.
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}
