package logging

import (
	"fmt"
	"sort"
	"sync"
)

// LoggerManager раздаёт логгеры компонентов и хранит для них
// переопределения уровня консоли (секция logging.components)
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	overrides map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers:   make(map[string]*Logger),
			overrides: make(map[string]LogLevel),
		}
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении.
// Новый логгер сразу получает переопределённый уровень, если он задан.
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер компонента %s: %w", component, err)
	}
	if level, ok := lm.overrides[component]; ok {
		logger.SetLevel(level)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер; если файл логов открыть не удалось,
// компонент пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	fallback := newLogger(component, defaultLogger.consoleLogger, defaultLogger.Level(), ERROR)
	lm.mu.RLock()
	if level, ok := lm.overrides[component]; ok {
		fallback.SetLevel(level)
	}
	lm.mu.RUnlock()
	return fallback
}

// SetComponentLevel задаёт уровень консоли компонента: запоминает его для
// будущих логгеров и применяет к уже созданному
func (lm *LoggerManager) SetComponentLevel(component string, level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.overrides[component] = level
	if logger, ok := lm.loggers[component]; ok {
		logger.SetLevel(level)
	}
}

// ConfigureComponents разбирает уровни вида {"world": "debug"} и применяет их.
// При ошибке разбора ни один уровень не меняется.
func (lm *LoggerManager) ConfigureComponents(levels map[string]string) error {
	parsed := make(map[string]LogLevel, len(levels))
	names := make([]string, 0, len(levels))
	for component, raw := range levels {
		level, err := ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
		parsed[component] = level
		names = append(names, component)
	}

	sort.Strings(names)
	for _, component := range names {
		lm.SetComponentLevel(component, parsed[component])
	}
	return nil
}

// CloseAll закрывает файлы всех логгеров и забывает их.
// Переопределения уровней сохраняются.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("закрытие логгера %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger {
	return GetComponentLogger("world")
}

func GetPhysicsLogger() *Logger {
	return GetComponentLogger("physics")
}

func GetGameLogger() *Logger {
	return GetComponentLogger("game")
}
