// Package logger is a process-wide logging facade. Packages log through
// the package functions; binaries install one or more backends at startup
// with Init. Before Init every call is a no-op, which keeps library code
// and tests free of logging setup.
package logger

// LoggerInstance is one logging backend.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var backends []LoggerInstance

// Init installs the logging backends. Calling it again replaces them.
func Init(instances ...LoggerInstance) {
	backends = instances
}

func each(fn func(LoggerInstance)) {
	for _, backend := range backends {
		fn(backend)
	}
}

// Log writes a message at the default level.
func Log(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Log(message, keyvals...) })
}

// Debug writes a message at DEBUG level.
func Debug(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Debug(message, keyvals...) })
}

// Info writes a message at INFO level.
func Info(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Info(message, keyvals...) })
}

// Warn writes a message at WARN level.
func Warn(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level.
func Error(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Error(message, keyvals...) })
}

// Fatal writes a message at FATAL level; backends are expected to
// terminate the process.
func Fatal(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Fatal(message, keyvals...) })
}
