// Package logger предоставляет структурированное логирование на базе zerolog.
// JSON формат для production, pretty-print для разработки.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// log — глобальный экземпляр логгера. Настраивается через Init().
var log zerolog.Logger

// Config содержит настройки логгера.
type Config struct {
	// Level — минимальный уровень: "debug", "info", "warn", "error".
	Level string

	// Pretty включает цветной консольный вывод для разработки.
	// При false логи пишутся в JSON.
	Pretty bool

	// Output — writer для вывода. По умолчанию os.Stdout.
	Output io.Writer
}

// init настраивает логгер значениями из окружения, чтобы логирование
// работало и до явного вызова Init().
func init() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	Init(Config{
		Level:  level,
		Pretty: strings.ToLower(os.Getenv("LOG_PRETTY")) == "true",
	})
}

// Init инициализирует глобальный логгер. Вызывается при старте приложения
// после загрузки конфигурации.
func Init(cfg Config) {
	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	level := parseLevel(cfg.Level)

	log = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
}

// parseLevel преобразует строку в zerolog.Level.
// Неизвестный уровень трактуется как info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug создаёт событие уровня debug.
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info создаёт событие уровня info.
// Пример: logger.Info().Str("order_id", id).Msg("Заказ создан")
func Info() *zerolog.Event {
	return log.Info()
}

// Warn создаёт событие уровня warn.
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error создаёт событие уровня error.
func Error() *zerolog.Event {
	return log.Error()
}

// Fatal создаёт событие уровня fatal. После записи процесс завершается.
func Fatal() *zerolog.Event {
	return log.Fatal()
}

// With возвращает контекст для создания дочернего логгера с полями.
// Пример: log := logger.With().Str("component", "checkout").Logger()
func With() zerolog.Context {
	return log.With()
}
