package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Game      GameConfig
	Predictor PredictorConfig
	Catalog   CatalogConfig
	Export    ExportConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string `mapstructure:"trusted_proxies"`
}

// GameConfig содержит параметры игры
type GameConfig struct {
	MaxRounds       int     `mapstructure:"max_rounds"`
	WindowSize      int     `mapstructure:"window_size"`
	StartDifficulty float64 `mapstructure:"start_difficulty"`
}

// PredictorConfig содержит настройки предсказателя сложности
type PredictorConfig struct {
	// Strategy: auto | learned | rule
	Strategy  string
	ModelPath string `mapstructure:"model_path"`
	Epochs    int
	InitSeed  int64 `mapstructure:"init_seed"`
}

// CatalogConfig определяет источник вопросов
type CatalogConfig struct {
	// Source: builtin | file | db
	Source string
	Path   string
}

// ExportConfig содержит настройки выгрузки журнала игры
type ExportConfig struct {
	// Dir: каталог для CSV при завершении игры; пустая строка отключает выгрузку
	Dir string
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	// Driver: postgres | sqlite | none
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	SQLitePath     string `mapstructure:"sqlite_path"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт).
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single'. Пустые Addr и Addrs отключают Redis.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс

	// SessionTTLMin: время жизни снимка сессии в минутах
	SessionTTLMin int `mapstructure:"session_ttl_min"`
}

// AuthConfig содержит настройки тикетов игровых сессий
type AuthConfig struct {
	TicketSecret    string `mapstructure:"ticket_secret"`
	TicketKeyID     string `mapstructure:"ticket_key_id"`
	TicketExpiryMin int    `mapstructure:"ticket_expiry_min"`
}

// CORSConfig содержит разрешённые источники для CORS и WebSocket
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig ограничивает создание игр с одного IP
type RateLimitConfig struct {
	GameStartPerMinute int `mapstructure:"game_start_per_minute"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Enabled сообщает, настроен ли Redis
func (r *RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// SessionTTL возвращает время жизни снимка сессии
func (r *RedisConfig) SessionTTL() time.Duration {
	return time.Duration(r.SessionTTLMin) * time.Minute
}

// TicketExpiry возвращает время жизни тикета
func (a *AuthConfig) TicketExpiry() time.Duration {
	return time.Duration(a.TicketExpiryMin) * time.Minute
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.shutdown_timeout", 10)
	vip.SetDefault("server.trusted_proxies", []string{"127.0.0.1", "::1"})

	vip.SetDefault("game.max_rounds", 10)
	vip.SetDefault("game.window_size", 3)
	vip.SetDefault("game.start_difficulty", 0.5)

	vip.SetDefault("predictor.strategy", "auto")
	vip.SetDefault("predictor.model_path", "")
	vip.SetDefault("predictor.epochs", 50)
	vip.SetDefault("predictor.init_seed", 0)

	vip.SetDefault("catalog.source", "file")
	vip.SetDefault("catalog.path", "data/questions.json")

	vip.SetDefault("export.dir", "exports")

	vip.SetDefault("database.driver", "none")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.sqlite_path", "trivia.db")
	vip.SetDefault("database.migrations_path", "migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.session_ttl_min", 120)

	vip.SetDefault("auth.ticket_key_id", "primary")
	vip.SetDefault("auth.ticket_expiry_min", 120)

	vip.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	vip.SetDefault("rate_limit.game_start_per_minute", 10)
}

func bindEnv(vip *viper.Viper) {
	// Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// Game
	vip.BindEnv("game.max_rounds", "GAME_MAX_ROUNDS")
	vip.BindEnv("game.window_size", "GAME_WINDOW_SIZE")

	// Predictor
	vip.BindEnv("predictor.strategy", "PREDICTOR_STRATEGY")
	vip.BindEnv("predictor.model_path", "PREDICTOR_MODEL_PATH")

	// Catalog и Export
	vip.BindEnv("catalog.source", "CATALOG_SOURCE")
	vip.BindEnv("catalog.path", "CATALOG_PATH")
	vip.BindEnv("export.dir", "EXPORT_DIR")

	// Database
	vip.BindEnv("database.driver", "DATABASE_DRIVER")
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.sqlite_path", "DATABASE_SQLITE_PATH")

	// Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Auth
	vip.BindEnv("auth.ticket_secret", "SESSION_TICKET_SECRET")
	vip.BindEnv("auth.ticket_expiry_min", "SESSION_TICKET_EXPIRY_MIN")
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файл не обязателен: есть умолчания и переменные окружения
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Game: max_rounds=%d window=%d start=%.2f", cfg.Game.MaxRounds, cfg.Game.WindowSize, cfg.Game.StartDifficulty)
		log.Printf("Predictor Strategy: %s (model: %q)", cfg.Predictor.Strategy, cfg.Predictor.ModelPath)
		log.Printf("Catalog: %s %s", cfg.Catalog.Source, cfg.Catalog.Path)
		log.Printf("Export Dir: %s", cfg.Export.Dir)
		log.Printf("Database Driver: %s", cfg.Database.Driver)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Session Ticket Secret Set: %t", cfg.Auth.TicketSecret != "")
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры и допустимые значения
func (c *Config) Validate() error {
	if c.Game.MaxRounds < 1 {
		return fmt.Errorf("game.max_rounds must be >= 1, got %d", c.Game.MaxRounds)
	}
	if c.Game.WindowSize < 1 {
		return fmt.Errorf("game.window_size must be >= 1, got %d", c.Game.WindowSize)
	}
	if c.Game.StartDifficulty < 0.1 || c.Game.StartDifficulty > 0.9 {
		return fmt.Errorf("game.start_difficulty must be within [0.1, 0.9], got %.2f", c.Game.StartDifficulty)
	}

	switch c.Predictor.Strategy {
	case "auto", "learned", "rule":
	default:
		return fmt.Errorf("predictor.strategy must be one of auto, learned, rule (got %q)", c.Predictor.Strategy)
	}

	switch c.Catalog.Source {
	case "builtin", "file":
	case "db":
		if c.Database.Driver == "none" {
			return fmt.Errorf("catalog.source=db requires database.driver (check DATABASE_DRIVER env var)")
		}
	default:
		return fmt.Errorf("catalog.source must be one of builtin, file, db (got %q)", c.Catalog.Source)
	}

	switch c.Database.Driver {
	case "none", "sqlite":
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, none (got %q)", c.Database.Driver)
	}
	return nil
}

// Validate проверяет настройки тикетов. Нужны только HTTP-серверу
func (a *AuthConfig) Validate() error {
	if a.TicketSecret == "" {
		return fmt.Errorf("session ticket secret is required in config (check SESSION_TICKET_SECRET env var)")
	}
	return nil
}
