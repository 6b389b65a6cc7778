package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/moodlit/internal/logger"
)

var (
	// ErrUnauthorized means the remote service rejected the identity token.
	// Callers clear local identity and consent state and do not retry.
	ErrUnauthorized = errors.New("identity is no longer valid")
	// ErrNotFound is returned by stores and caches for missing rows.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks network or collaborator failures worth a manual retry.
	ErrTransient = errors.New("temporarily unavailable")
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// UserMessage maps an error to the fallback text shown to the user.
// Details stay in the log file.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Access denied. Your company sharing access has been removed; run 'moodlit company login' to enroll again."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	case errors.Is(err, ErrTransient):
		return "Something went wrong reaching the service. Please try again."
	default:
		return "An unexpected error occurred."
	}
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
