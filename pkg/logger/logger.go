package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// slowOpThreshold is the duration above which a per-camera operation is
// escalated to a warning in the main log.
const slowOpThreshold = 30 * time.Second

var datedLogPattern = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2})\.log$`)

// Logger wraps a logrus.Logger and adds the file-backed domain sinks the
// capture pipeline writes to: a main system log, a token log, a performance
// log, and one log per camera. Files carry the date in their name
// (main_2026-08-25.log) and are cleaned up after RetentionDays.
type Logger struct {
	*logrus.Logger

	logsDir       string
	retentionDays int
	mu            sync.Mutex
}

// New creates a Logger writing structured output to stdout and plain dated
// files under logsDir. Level is "debug", "info", "warn" or "error".
func New(logsDir, level string, retentionDays int) *Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return &Logger{
		Logger:        log,
		logsDir:       logsDir,
		retentionDays: retentionDays,
	}
}

// Main logs to the main system log.
func (l *Logger) Main(msg string) {
	l.Info(msg)
	l.appendLine(filepath.Join(l.logsDir, "system", "main"), "main", msg)
}

// Mainf logs a formatted message to the main system log.
func (l *Logger) Mainf(format string, args ...interface{}) {
	l.Main(fmt.Sprintf(format, args...))
}

// Token logs to the token lifecycle log.
func (l *Logger) Token(msg string) {
	l.WithField("log", "token").Info(msg)
	l.appendLine(filepath.Join(l.logsDir, "system", "token"), "token", msg)
}

// Perf logs to the performance log.
func (l *Logger) Perf(msg string) {
	l.WithField("log", "performance").Debug(msg)
	l.appendLine(filepath.Join(l.logsDir, "system", "performance"), "performance", msg)
}

// Camera logs a message to the per-camera log. Name must already be
// normalized (lowercase, hyphenated).
func (l *Logger) Camera(name, msg string) {
	l.WithField("camera", name).Info(msg)
	l.appendLine(filepath.Join(l.logsDir, "cameras", name), name, msg)
}

// CameraPerf records a timed operation for a camera in both the camera log
// and the performance log, flagging slow operations in the main log.
func (l *Logger) CameraPerf(name, operation string, duration time.Duration, success bool) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	line := fmt.Sprintf("PERF | %s | %.2fs | %s", operation, duration.Seconds(), status)
	l.appendLine(filepath.Join(l.logsDir, "cameras", name), name, line)
	l.Perf(fmt.Sprintf("%s | %s | %.2fs | %s", name, operation, duration.Seconds(), status))

	if duration > slowOpThreshold {
		l.Mainf("WARNING SLOW OPERATION: %s - %s took %.2fs", name, operation, duration.Seconds())
	}
}

func (l *Logger) appendLine(folder, base, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(folder, 0o755); err != nil {
		l.WithError(err).Warn("Failed to create log folder")
		return
	}

	now := time.Now()
	path := filepath.Join(folder, fmt.Sprintf("%s_%s.log", base, now.Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.WithError(err).Warn("Failed to open log file")
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "%s | %s\n", now.Format("2006-01-02 15:04:05"), msg)
}

// CleanupOldLogs deletes dated log files older than the retention window and
// returns the number removed. Files whose names do not match the dated
// pattern are left alone.
func (l *Logger) CleanupOldLogs() (int, error) {
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays).Format("2006-01-02")
	deleted := 0

	err := filepath.Walk(l.logsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		m := datedLogPattern.FindStringSubmatch(info.Name())
		if m == nil {
			return nil
		}
		// Dates in YYYY-MM-DD order compare correctly as strings.
		if m[1] < cutoff {
			if rmErr := os.Remove(path); rmErr == nil {
				deleted++
			}
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return deleted, err
	}
	return deleted, nil
}
