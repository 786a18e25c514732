package logger

import "sync"

// Sink is a logging backend. The package-level logging functions fan out
// to every registered sink.
type Sink interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var (
	mu    sync.RWMutex
	sinks []Sink
)

// Init registers the logging backends. Must be called once at startup
// before any logging function; calling a logging function before Init is
// a no-op.
func Init(s ...Sink) {
	mu.Lock()
	defer mu.Unlock()
	sinks = s
}

func each(fn func(Sink)) {
	mu.RLock()
	defer mu.RUnlock()
	for _, s := range sinks {
		fn(s)
	}
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	each(func(s Sink) { s.Debug(message, keyvals...) })
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	each(func(s Sink) { s.Info(message, keyvals...) })
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	each(func(s Sink) { s.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	each(func(s Sink) { s.Error(message, keyvals...) })
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	each(func(s Sink) { s.Fatal(message, keyvals...) })
}
