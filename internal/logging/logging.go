// Package logging builds the beego logger used for decoder diagnostics.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/astaxie/beego/logs"
	"github.com/juju/errors"
)

// Levels accepted by ParseLevel.
var levels = map[string]int{
	"debug": logs.LevelDebug,
	"info":  logs.LevelInformational,
	"warn":  logs.LevelWarning,
	"error": logs.LevelError,
}

// ParseLevel maps a level name (debug, info, warn, error) to its beego level.
func ParseLevel(name string) (int, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.NotValidf("log level %q", name)
	}
	return level, nil
}

var adapterSeq int64

// New returns a BeeLogger writing to w at the given level. Each call registers its own
// adapter since beego instantiates adapters by name.
func New(level string, w io.Writer) (*logs.BeeLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, errors.Trace(err)
	}

	name := fmt.Sprintf("emvqr-writer-%d", atomic.AddInt64(&adapterSeq, 1))
	logs.Register(name, func() logs.Logger {
		return &writerLogger{w: w, level: logs.LevelDebug}
	})

	l := logs.NewLogger()
	if err := l.SetLogger(name, fmt.Sprintf(`{"level":%d}`, lvl)); err != nil {
		return nil, errors.Annotate(err, "configure logger")
	}
	l.SetLevel(lvl)
	return l, nil
}

// writerLogger is a beego adapter writing one line per message to an io.Writer.
type writerLogger struct {
	mu    sync.Mutex
	w     io.Writer
	level int
}

type writerConfig struct {
	Level *int `json:"level"`
}

func (l *writerLogger) Init(config string) error {
	if config == "" {
		return nil
	}
	var cfg writerConfig
	if err := json.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Annotatef(err, "invalid logger config %q", config)
	}
	if cfg.Level != nil {
		l.level = *cfg.Level
	}
	return nil
}

func (l *writerLogger) WriteMsg(when time.Time, msg string, level int) error {
	if level > l.level {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.w, "%s %s\n", when.Format("2006/01/02 15:04:05.000"), msg)
	return err
}

func (l *writerLogger) Destroy() {}

func (l *writerLogger) Flush() {
	if f, ok := l.w.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
}
