// Package logging builds the compiler's structured logger. Compilation
// is single-threaded and synchronous (spec.md §5); this exists purely to
// trace phase transitions when --debug is set, never to gate behavior.
package logging

import "go.uber.org/zap"

// New builds a SugaredLogger: development-mode (human-readable, caller
// info, debug level) when debug is true, otherwise a quiet production
// logger at warn level so a normal build stays silent.
func New(debug bool) *zap.SugaredLogger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		// Falling back to a no-op logger keeps a broken logging config from
		// taking down compilation of an otherwise valid program.
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
