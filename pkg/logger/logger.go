package logger

// Logger is the logging contract shared by every component of the service.
type Logger interface {
	Log(format string, v ...interface{})
	SetPrefix(prefix string)
}
