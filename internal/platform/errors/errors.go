package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrNoActiveFocusSession = errors.New("no active focus session")
	ErrDaemonNotRunning     = errors.New("daemon is not running")
	ErrRemoteUnavailable    = errors.New("remote store unavailable")
	ErrRuleInstall          = errors.New("rule installation failed")
)

// Known lists the sentinels that survive a trip over the IPC boundary, where
// only the error text is transmitted.
var Known = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrNoActiveFocusSession,
	ErrDaemonNotRunning,
	ErrRemoteUnavailable,
	ErrRuleInstall,
}
