package notifysync

import "log"

// Events receives user-facing notices and diagnostics from a Controller.
// Implementations decide where they go: a toast surface, a status bar, a
// logger. The controller never panics or returns errors to callers; every
// failure arrives here instead.
type Events interface {
	// Notice is an informational message the user should see, such as the
	// text of a newly arrived notification.
	Notice(message string)
	// Failure is a user-facing failure message for an operation that did
	// not complete.
	Failure(message string)
	// Trace is a diagnostic event not meant for end users.
	Trace(format string, args ...any)
}

// LogEvents writes all controller events to the standard logger. It is the
// default sink when none is configured.
type LogEvents struct{}

func (LogEvents) Notice(message string) { log.Printf("notifysync: %s", message) }

func (LogEvents) Failure(message string) { log.Printf("notifysync: failure: %s", message) }

func (LogEvents) Trace(format string, args ...any) { log.Printf("notifysync: "+format, args...) }
