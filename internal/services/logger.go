package services

// Logger is the logging surface services depend on. zap's SugaredLogger
// satisfies it.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
