package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// NewObserverLogger returns a Logger recording every entry at or above level,
// together with the recorded entries. It is meant for tests.
func NewObserverLogger(level string) (*ZapLogger, *observer.ObservedLogs) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	core, logs := observer.New(lvl)
	return &ZapLogger{zap.New(core)}, logs
}
