package core

// Logger is the app-wide logging contract. args may include structured
// extras (maps, errors, a user.User to tag the event with).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
