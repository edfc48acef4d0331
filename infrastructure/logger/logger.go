package logger

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// BackendLog is the logging backend used to create all subsystem loggers.
var BackendLog = NewBackend()

var (
	subsystemsMutex sync.Mutex
	subsystems      = make(map[string]*Logger)
)

// RegisterSubSystem returns a new logger for the given subsystem tag,
// registering it so its level can be controlled by SetLogLevels.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	logger, ok := subsystems[subsystem]
	if !ok {
		logger = BackendLog.Logger(subsystem)
		subsystems[subsystem] = logger
	}
	return logger
}

// InitLog attaches log file and error log file to the backend log.
func InitLog(logFile, errLogFile string) error {
	// 280 MB (MB=1000^2 bytes)
	err := BackendLog.AddLogFileWithCustomRotator(logFile, LevelTrace, 280*1000, 64)
	if err != nil {
		return errors.Errorf("Error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
	}
	err = BackendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		return errors.Errorf("Error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
	}
	InitLogStdout(LevelInfo)

	return BackendLog.Run()
}

// InitLogStdout attaches a stdout writer to the backend log at the
// given level.
func InitLogStdout(logLevel Level) {
	err := BackendLog.AddLogWriter(os.Stdout, logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error adding stdout to the loggerfor level %s: %s", logLevel, err)
		os.Exit(1)
	}
}

// SetLogLevels sets the logging level for all of the subsystems to the
// given level.
func SetLogLevels(logLevel string) error {
	level, ok := LevelFromString(logLevel)
	if !ok {
		return errors.Errorf("invalid log level %s", logLevel)
	}

	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	for _, logger := range subsystems {
		logger.SetLevel(level)
	}
	return nil
}

// SetLogLevel sets the logging level of the given subsystem to the
// given level.
func SetLogLevel(subsystem string, logLevel string) error {
	level, ok := LevelFromString(logLevel)
	if !ok {
		return errors.Errorf("invalid log level %s", logLevel)
	}

	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	logger, ok := subsystems[subsystem]
	if !ok {
		return errors.Errorf("unknown subsystem %s", subsystem)
	}
	logger.SetLevel(level)
	return nil
}

type logEntry struct {
	log   []byte
	level Level
}

// Logger is a subsystem logger for a logging Backend.
type Logger struct {
	lvl       Level // atomic
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

// Trace formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.Write(LevelTrace, args...)
}

// Tracef formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.Writef(LevelTrace, format, args...)
}

// Debug formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	l.Write(LevelDebug, args...)
}

// Debugf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Writef(LevelDebug, format, args...)
}

// Info formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.Write(LevelInfo, args...)
}

// Infof formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Writef(LevelInfo, format, args...)
}

// Warn formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	l.Write(LevelWarn, args...)
}

// Warnf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Writef(LevelWarn, format, args...)
}

// Error formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelError.
func (l *Logger) Error(args ...interface{}) {
	l.Write(LevelError, args...)
}

// Errorf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Writef(LevelError, format, args...)
}

// Critical formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	l.Write(LevelCritical, args...)
}

// Criticalf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Writef(LevelCritical, format, args...)
}

// Write formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with the given logLevel.
func (l *Logger) Write(logLevel Level, args ...interface{}) {
	lvl := l.Level()
	if lvl <= logLevel {
		l.print(logLevel, l.tag, args...)
	}
}

// Writef formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with the given logLevel.
func (l *Logger) Writef(logLevel Level, format string, args ...interface{}) {
	lvl := l.Level()
	if lvl <= logLevel {
		l.printf(logLevel, l.tag, format, args...)
	}
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return l.lvl
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	l.lvl = level
}

// Backend returns the log backend.
func (l *Logger) Backend() *Backend {
	return l.b
}

// printf outputs a log message to the writeChan prefixed by the specified log
// level and subsystem tag according to the format specifier.
func (l *Logger) printf(lvl Level, tag string, format string, args ...interface{}) {
	t := time.Now() // get as early as possible

	bytebuf := make([]byte, 0, normalLogSize)
	bytebuf = formatHeader(bytebuf, t, lvl.String(), tag, l.b.flag, callsite(l.b.flag))
	bytebuf = append(bytebuf, fmt.Sprintf(format, args...)...)
	bytebuf = append(bytebuf, '\n')

	if !l.b.IsRunning() {
		_, _ = fmt.Fprintf(os.Stderr, "Writing to the logger when it's not running! log: %s", string(bytebuf))
		return
	}
	l.writeChan <- logEntry{bytebuf, lvl}
}

// print outputs a log message to the writeChan prefixed by the specified log
// level and subsystem tag.
func (l *Logger) print(lvl Level, tag string, args ...interface{}) {
	t := time.Now() // get as early as possible

	bytebuf := make([]byte, 0, normalLogSize)
	bytebuf = formatHeader(bytebuf, t, lvl.String(), tag, l.b.flag, callsite(l.b.flag))
	bytebuf = append(bytebuf, fmt.Sprint(args...)...)
	bytebuf = append(bytebuf, '\n')

	if !l.b.IsRunning() {
		_, _ = fmt.Fprintf(os.Stderr, "Writing to the logger when it's not running! log: %s", string(bytebuf))
		return
	}
	l.writeChan <- logEntry{bytebuf, lvl}
}

// callsite returns the file name and line of the callsite of the logging
// caller, formatted per the given flags.
func callsite(flag uint32) string {
	if flag&(LogFlagShortFile|LogFlagLongFile) == 0 {
		return ""
	}
	// The call stack here is: callsite <- print/printf <- Write/Writef <- exported level method <- caller
	file, line := callerFileLine(5)
	if flag&LogFlagShortFile != 0 {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if os.IsPathSeparator(file[i]) {
				short = file[i+1:]
				break
			}
		}
		file = short
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func callerFileLine(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???", 0
	}
	return file, line
}

// formatHeader writes a log header into buf in the following format:
// 2006-01-02 15:04:05.000 [LVL] TAG: caller
func formatHeader(buf []byte, t time.Time, lvl, tag string, flag uint32, file string) []byte {
	buf = append(buf, t.Format("2006-01-02 15:04:05.000")...)
	buf = append(buf, " ["...)
	buf = append(buf, lvl...)
	buf = append(buf, "] "...)
	buf = append(buf, tag...)
	if file != "" {
		buf = append(buf, ' ')
		buf = append(buf, file...)
	}
	buf = append(buf, ": "...)
	return buf
}

// LogClosure is a closure that can be printed with %s to be used to
// generate expensive-to-create data for a detailed log level and avoid doing
// the work if the data isn't printed.
type LogClosure func() string

func (c LogClosure) String() string {
	return c()
}

// NewLogClosure casts a function to a LogClosure.
// See LogClosure for details.
func NewLogClosure(c func() string) LogClosure {
	return c
}
