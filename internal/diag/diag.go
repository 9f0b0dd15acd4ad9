// Package diag sets up logging and collects the degraded-render warnings
// of each map.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig selects the log level and an optional rotating log file.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// NewLogger builds a text logger writing to w and, when configured, to a
// rotating file.
func NewLogger(cfg LogConfig, w io.Writer) (*logrus.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: cfg.File == "",
		FullTimestamp:    true,
	})

	level := logrus.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(strings.ToLower(cfg.Level)); err != nil {
			return nil, fmt.Errorf("diag: %w", err)
		}
	}
	log.SetLevel(level)

	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 20
		}
		w = io.MultiWriter(w, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
		})
	}
	log.SetOutput(w)
	return log, nil
}

// Warning is one deduplicated degraded condition.
type Warning struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type warnKey struct {
	kind, subject string
}

// Report collects the warnings of one map. The first occurrence of each
// (kind, subject) is logged; repeats only raise its count.
type Report struct {
	Map string

	log      logrus.FieldLogger
	mu       sync.Mutex
	index    map[warnKey]int
	warnings []Warning
}

// NewReport starts a report for a map. log may be nil.
func NewReport(mapName string, log logrus.FieldLogger) *Report {
	r := &Report{Map: mapName, index: make(map[warnKey]int)}
	if log != nil {
		r.log = log.WithField("map", mapName)
	}
	return r
}

// Warnf records a degraded condition.
func (r *Report) Warnf(kind, subject, format string, args ...interface{}) {
	key := warnKey{kind, strings.ToLower(subject)}

	r.mu.Lock()
	if i, ok := r.index[key]; ok {
		r.warnings[i].Count++
		r.mu.Unlock()
		return
	}
	msg := fmt.Sprintf(format, args...)
	r.index[key] = len(r.warnings)
	r.warnings = append(r.warnings, Warning{Kind: kind, Subject: subject, Message: msg, Count: 1})
	r.mu.Unlock()

	if r.log != nil {
		r.log.WithFields(logrus.Fields{"kind": kind, "subject": subject}).Warn(msg)
	}
}

// Warnings returns a copy of the collected warnings in first-seen order.
func (r *Report) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Len returns the number of distinct warnings.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warnings)
}
