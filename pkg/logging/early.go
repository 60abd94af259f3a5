package logging

import (
	"fmt"
	"os"
)

// EarlyLog covers startup failures before the configured zap logger exists,
// which is exactly the window where config loading or logger construction
// itself has failed.
type EarlyLog struct{}

func NewEarlyLog() *EarlyLog {
	return &EarlyLog{}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: "+msg+"\n", args...)
}
