package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/creyno/genomemeta/internal/fsutil"
)

// New builds the run logger: everything at Info (Debug with verbose) goes to
// stderr, errors are additionally mirrored into a collision-free error log
// file. Returns the logger and the error log path that was chosen.
func New(verbose bool, errorLogBase string) (*zap.Logger, string, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	logPath := fsutil.UniqueName(errorLogBase)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", err
	}

	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.ErrorLevel),
	)
	return zap.New(core), logPath, nil
}
