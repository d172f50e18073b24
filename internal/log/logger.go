package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// Init configures the global zap logger. With debug enabled it uses the
// development config with colored console output; otherwise logging is a
// no-op so normal runs stay quiet.
func Init(debug bool) {
	var l *zap.Logger

	if debug {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		config.DisableStacktrace = true

		var err error
		l, err = config.Build()
		if err != nil {
			panic(err)
		}
	} else {
		l = zap.NewNop()
	}

	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l)
	logger = l.Sugar()
}

// Logger returns the global sugared logger, initializing a silent one if
// Init has not been called.
func Logger() *zap.SugaredLogger {
	if logger == nil {
		Init(false)
	}
	return logger
}
