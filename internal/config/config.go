// Пакет config — загрузка и валидация конфигурации HashiRWA
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Backend'ы хранилища записей.
const (
	// StoreBackendFile — JSON-файл (по умолчанию).
	StoreBackendFile = "file"
	// StoreBackendPostgres — PostgreSQL через pgx.
	StoreBackendPostgres = "postgres"
	// StoreBackendMemory — in-memory (состояние живёт до рестарта).
	StoreBackendMemory = "memory"
)

// Аллокаторы идентификаторов записей.
const (
	// IDAllocatorSequence — монотонный счётчик (по умолчанию).
	IDAllocatorSequence = "sequence"
	// IDAllocatorRandom — случайный 63-битный id на базе UUID.
	IDAllocatorRandom = "random"
)

// Config содержит все параметры конфигурации HashiRWA.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Админ-доступ ---

	// Общий секретный ключ администратора (сравнение на точное равенство)
	AdminKey string

	// --- Хранилище записей ---

	// Backend хранилища (file, postgres, memory)
	StoreBackend string
	// Путь к JSON-файлу хранилища (для backend file)
	DBFile string
	// Засеивать ли демо-записи при пустом хранилище
	SeedDemo bool

	// --- PostgreSQL (для backend postgres) ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Пользователь БД
	DBUser string
	// Пароль БД (обязателен при backend postgres)
	DBPassword string
	// Режим SSL (disable, require, verify-full)
	DBSSLMode string

	// --- Идентификаторы ---

	// Аллокатор id записей (sequence, random)
	IDAllocator string

	// --- Кэш записей ---

	// Максимальный размер LRU-кэша записей
	CacheSize int
	// TTL записи в кэше
	CacheTTL time.Duration

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// RWA_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("RWA_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("RWA_PORT: %w", err)
	}

	// RWA_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("RWA_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("RWA_LOG_LEVEL: %w", err)
	}

	// RWA_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("RWA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RWA_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Админ-доступ ---

	// RWA_ADMIN_KEY — общий ключ администратора (по умолчанию "hashirwa" — демо)
	cfg.AdminKey = getEnvDefault("RWA_ADMIN_KEY", "hashirwa")

	// --- Хранилище записей ---

	// RWA_STORE_BACKEND — backend хранилища (по умолчанию file)
	cfg.StoreBackend = getEnvDefault("RWA_STORE_BACKEND", StoreBackendFile)
	switch cfg.StoreBackend {
	case StoreBackendFile, StoreBackendPostgres, StoreBackendMemory:
	default:
		return nil, fmt.Errorf("RWA_STORE_BACKEND: недопустимый backend %q, допустимые: file, postgres, memory", cfg.StoreBackend)
	}

	// RWA_DB_FILE — путь к JSON-файлу хранилища (по умолчанию db.json)
	cfg.DBFile = getEnvDefault("RWA_DB_FILE", "db.json")

	// RWA_SEED_DEMO — засеивать демо-записи при пустом хранилище (по умолчанию true)
	cfg.SeedDemo, err = getEnvBool("RWA_SEED_DEMO", true)
	if err != nil {
		return nil, fmt.Errorf("RWA_SEED_DEMO: %w", err)
	}

	// --- PostgreSQL ---

	if cfg.StoreBackend == StoreBackendPostgres {
		// RWA_DB_HOST — хост PostgreSQL (по умолчанию localhost)
		cfg.DBHost = getEnvDefault("RWA_DB_HOST", "localhost")

		// RWA_DB_PORT — порт PostgreSQL (по умолчанию 5432)
		cfg.DBPort, err = getEnvInt("RWA_DB_PORT", 5432)
		if err != nil {
			return nil, fmt.Errorf("RWA_DB_PORT: %w", err)
		}

		// RWA_DB_NAME — имя базы данных (по умолчанию hashirwa)
		cfg.DBName = getEnvDefault("RWA_DB_NAME", "hashirwa")

		// RWA_DB_USER — пользователь БД (по умолчанию hashirwa)
		cfg.DBUser = getEnvDefault("RWA_DB_USER", "hashirwa")

		// RWA_DB_PASSWORD — пароль БД (обязателен при backend postgres)
		cfg.DBPassword, err = getEnvRequired("RWA_DB_PASSWORD")
		if err != nil {
			return nil, err
		}

		// RWA_DB_SSLMODE — режим SSL (по умолчанию disable)
		cfg.DBSSLMode = getEnvDefault("RWA_DB_SSLMODE", "disable")
	}

	// --- Идентификаторы ---

	// RWA_ID_ALLOCATOR — аллокатор id записей (по умолчанию sequence)
	cfg.IDAllocator = getEnvDefault("RWA_ID_ALLOCATOR", IDAllocatorSequence)
	switch cfg.IDAllocator {
	case IDAllocatorSequence, IDAllocatorRandom:
	default:
		return nil, fmt.Errorf("RWA_ID_ALLOCATOR: недопустимый аллокатор %q, допустимые: sequence, random", cfg.IDAllocator)
	}

	// --- Кэш записей ---

	// RWA_CACHE_SIZE — максимальный размер LRU-кэша (по умолчанию 256)
	cfg.CacheSize, err = getEnvInt("RWA_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("RWA_CACHE_SIZE: %w", err)
	}

	// RWA_CACHE_TTL — TTL записи в кэше (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("RWA_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RWA_CACHE_TTL: %w", err)
	}

	// --- HTTP Server Timeouts ---

	// RWA_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("RWA_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RWA_HTTP_READ_TIMEOUT: %w", err)
	}

	// RWA_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("RWA_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RWA_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// RWA_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("RWA_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RWA_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// RWA_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("RWA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RWA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
