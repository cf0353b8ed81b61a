package config

import (
	"flag"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config — конфигурация сервера. Собирается один раз при старте и дальше
// не мутирует: секрет и лимиты передаются в валидаторы по read-only ссылке.
type Config struct {
	BaseURL      string `env:"BASE_URL"`
	DatabasePath string `env:"DATABASE_PATH"`

	// AppSecret — общий секрет HMAC-подписей запросов. Зашит и в клиентское
	// приложение; поднимает барьер против постороннего трафика.
	AppSecret string `env:"APP_SECRET_KEY"`

	// AdminKey включает /admin/stats; пустой — admin-эндпоинты выключены.
	AdminKey string `env:"ADMIN_SECRET_KEY"`

	// AppTag — ожидаемый тег приложения в конверте бэкапа.
	AppTag string `env:"APP_TAG"`

	// Лимиты абьюз-контроля.
	MaxBackupBytes   int64   `env:"MAX_BACKUP_BYTES"`
	WarnBackupBytes  int64   `env:"WARN_BACKUP_BYTES"`
	BackupsPerHour   uint    `env:"MAX_BACKUPS_PER_HOUR"`
	BackupsPerDay    uint    `env:"MAX_BACKUPS_PER_DAY"`
	MaxTimestampAge  int64   `env:"MAX_TIMESTAMP_AGE_SECS"`
	EntropyThreshold float64 `env:"ENTROPY_THRESHOLD"`

	// StorageWorkers — ширина полосы допуска к блокирующим операциям БД.
	StorageWorkers int `env:"STORAGE_WORKERS"`
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "адрес и порт сервера (host:port)")
	flag.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "путь к файлу bbolt-базы")
	flag.StringVar(&cfg.AppSecret, "app-secret", cfg.AppSecret, "секрет HMAC-подписей запросов")
	flag.StringVar(&cfg.AdminKey, "admin-key", cfg.AdminKey, "ключ admin-эндпоинтов (пусто = выключены)")
	flag.Parse()

	// Defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = "localhost:8080"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./data/blobkeeper.db"
	}
	if cfg.AppSecret == "" {
		cfg.AppSecret = "dev-secret-key"
	}
	if cfg.AppTag == "" {
		cfg.AppTag = "blobkeeper"
	}
	if cfg.MaxBackupBytes == 0 {
		cfg.MaxBackupBytes = 5 * 1024 * 1024 // легитимный бэкап ~300KB, запас 16x
	}
	if cfg.WarnBackupBytes == 0 {
		cfg.WarnBackupBytes = 1 * 1024 * 1024
	}
	if cfg.BackupsPerHour == 0 {
		cfg.BackupsPerHour = 5
	}
	if cfg.BackupsPerDay == 0 {
		cfg.BackupsPerDay = 20
	}
	if cfg.MaxTimestampAge == 0 {
		cfg.MaxTimestampAge = 300 // 5 минут против replay-атак
	}
	if cfg.EntropyThreshold == 0 {
		cfg.EntropyThreshold = 0.75
	}
	if cfg.StorageWorkers == 0 {
		cfg.StorageWorkers = 8
	}

	return cfg
}
