package logging

// Leveled logging for the engine. The levels are ordered
// trace < debug < info < warn < error < off; Init is idempotent, so the
// first caller to set a level wins and later calls are ignored.

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/paiml/ruchy-sub025/source/text"
)

type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Off
)

func (lv Level) String() string {
	switch lv {
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return "off"
}

func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return Trace, true
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warn", "warning":
		return Warn, true
	case "error":
		return Error, true
	case "off":
		return Off, true
	}
	return Off, false
}

var (
	mu          sync.Mutex
	initialized bool
	level       = Warn
	out         io.Writer = os.Stderr
)

func Init(lv Level) {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return
	}
	initialized = true
	level = lv
}

// For tests, which need to capture output and reset the idempotency latch.
func SetOutputForTesting(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	initialized = false
}

func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

func logAt(lv Level, prefix, msg string) {
	mu.Lock()
	defer mu.Unlock()
	if lv < level || level == Off {
		return
	}
	fmt.Fprintln(out, prefix+msg)
}

func Tracef(s string, args ...any) {
	logAt(Trace, text.Gray("trace: "), fmt.Sprintf(s, args...))
}

func Debugf(s string, args ...any) {
	logAt(Debug, text.Cyan("debug: "), fmt.Sprintf(s, args...))
}

func Infof(s string, args ...any) {
	logAt(Info, "info: ", fmt.Sprintf(s, args...))
}

func Warnf(s string, args ...any) {
	logAt(Warn, text.Yellow("warn: "), fmt.Sprintf(s, args...))
}

func Errorf(s string, args ...any) {
	logAt(Error, text.Red("error: "), fmt.Sprintf(s, args...))
}
