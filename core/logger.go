package core

// Logger is any leveled logging service.
// Extra args may carry an error, a user.User (for error reporting context)
// or any values to be dumped along with the message.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
