package main

import (
	"os"

	"github.com/cyclopcam/logs"
	"github.com/ironsheep/captcha-tools-mcp/internal/config"
)

// newLog returns the process logger. In stdio mode stdout carries the MCP
// protocol, so logs go to stderr.
func newLog(cfg *config.Config) (logs.Log, error) {
	var log logs.Log
	if cfg.HTTP {
		l, err := logs.NewLog()
		if err != nil {
			return nil, err
		}
		log = l
	} else {
		log = &logs.Logger{Output: os.Stderr}
	}
	if cfg.Debug() {
		return log, nil
	}
	return &quietLog{log}, nil
}

// quietLog drops debug messages.
type quietLog struct {
	logs.Log
}

func (l *quietLog) Debugf(format string, a ...interface{}) {}
