package core

// Logger is any leveled logger the services can report through.
// args may carry an error, a user value or arbitrary context maps; the
// implementation decides how to forward them (see services/logger).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// NopLogger discards everything. Handy default for tests.
type NopLogger struct{}

var _ Logger = (*NopLogger)(nil)

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
