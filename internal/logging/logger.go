package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации ("debug", "INFO", ...)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
}

// Logger представляет систему логирования одного компонента
type Logger struct {
	component     string
	consoleLogger *log.Logger
	fileLogger    *log.Logger
	file          *os.File
	minConsole    atomic.Int32 // меняется на лету через SetLevel
	minFile       atomic.Int32
}

func newLogger(component string, console *log.Logger, cLevel, fLevel LogLevel) *Logger {
	l := &Logger{component: component, consoleLogger: console}
	l.minConsole.Store(int32(cLevel))
	l.minFile.Store(int32(fLevel))
	return l
}

var (
	settingsMu   sync.RWMutex
	logDir       string // пусто - файловые логи выключены
	consoleLevel = INFO  // уровень консоли для новых логгеров
	fileLevel    = DEBUG // уровень файла для новых логгеров
)

// defaultLogger пишет только в консоль, пока не вызван InitDefaultLogger
var defaultLogger = newLogger("", log.New(os.Stdout, "", log.LstdFlags), INFO, ERROR)

// Configure задаёт каталог файловых логов и уровень консоли для новых логгеров
func Configure(dir string, level LogLevel) {
	settingsMu.Lock()
	logDir = dir
	consoleLevel = level
	settingsMu.Unlock()

	defaultLogger.SetLevel(level)
}

// NewLogger создаёт логгер компонента. Если задан каталог логов, пишет также в файл.
func NewLogger(component string) (*Logger, error) {
	settingsMu.RLock()
	dir, cLevel, fLevel := logDir, consoleLevel, fileLevel
	settingsMu.RUnlock()

	l := newLogger(component, log.New(os.Stdout, "", log.LstdFlags), cLevel, fLevel)
	if dir == "" {
		return l, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	l.file = file
	l.fileLogger = log.New(file, "", log.LstdFlags)
	return l, nil
}

// InitDefaultLogger заменяет логгер по умолчанию на логгер с указанным именем
func InitDefaultLogger(name string) error {
	l, err := NewLogger(name)
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}

// CloseDefaultLogger закрывает файл логгера по умолчанию
func CloseDefaultLogger() {
	_ = defaultLogger.Close()
}

// Close закрывает файл логов, если он открыт
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.logMessage(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.logMessage(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.logMessage(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.logMessage(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.logMessage(ERROR, format, args...) }

// SetLevel меняет порог консоли; безопасно вызывать во время записи
func (l *Logger) SetLevel(level LogLevel) {
	l.minConsole.Store(int32(level))
}

// Level возвращает текущий порог консоли
func (l *Logger) Level() LogLevel {
	return LogLevel(l.minConsole.Load())
}

// Enabled сообщает, будет ли записано сообщение уровня level хоть куда-то
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.Level() || (l.fileLogger != nil && level >= LogLevel(l.minFile.Load()))
}

func (l *Logger) logMessage(level LogLevel, format string, args ...interface{}) {
	if l == nil || !l.Enabled(level) {
		return
	}

	message := fmt.Sprintf(format, args...)
	if l.component != "" {
		message = fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, message)
	} else {
		message = fmt.Sprintf("[%s] %s", level.String(), message)
	}

	if l.fileLogger != nil && level >= LogLevel(l.minFile.Load()) {
		l.fileLogger.Println(message)
	}
	if level >= l.Level() {
		l.consoleLogger.Println(message)
	}
}

// Trace логирует через логгер по умолчанию
func Trace(format string, args ...interface{}) { defaultLogger.Trace(format, args...) }

// Debug логирует через логгер по умолчанию
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }

// Info логирует через логгер по умолчанию
func Info(format string, args ...interface{}) { defaultLogger.Info(format, args...) }

// Warn логирует через логгер по умолчанию
func Warn(format string, args ...interface{}) { defaultLogger.Warn(format, args...) }

// Error логирует через логгер по умолчанию
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
