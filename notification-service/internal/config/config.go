package config

import (
	"fmt"
	"log"

	"concierge-server/shared/utils"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	RabbitMQ          RabbitMQConfig
	DB                DBConfig
	FCM               FCMConfig
	APNS              APNSConfig
	Log               LogConfig
	PushQueueName     string `yaml:"push_queue_name" env:"PUSH_QUEUE_NAME" env-default:"push_notifications_queue"`
	WorkerConcurrency int    `yaml:"worker_concurrency" env:"WORKER_CONCURRENCY" env-default:"10"`
	HealthCheckPort   string `yaml:"health_check_port" env:"HEALTH_CHECK_PORT" env-default:"8088"`
}

type RabbitMQConfig struct {
	URI string `yaml:"uri" env:"RABBITMQ_URI" env-required:"true"`
}

// DBConfig — подключение к базе с токенами устройств.
// Пароль загружается из Docker-секрета, не из окружения.
type DBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-required:"true"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-required:"true"`
	Name     string `yaml:"name" env:"DB_NAME" env-required:"true"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	Password string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type FCMConfig struct {
	CredentialsPath string `yaml:"credentials_path" env:"FCM_CREDENTIALS_PATH"` // Путь к файлу ключа сервис-аккаунта
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION" env-default:"false"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

func LoadConfig() (*Config, error) {
	configPath := "config.yml" // Путь по умолчанию

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v. Попытка чтения из переменных окружения.", configPath, err)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
	}

	dbPassword, err := utils.ReadSecret("db_password")
	if err != nil {
		return nil, err
	}
	cfg.DB.Password = dbPassword

	log.Printf("Конфигурация успешно загружена. RabbitMQ URI: %s, Push Queue: %s, DB: %s@%s:%s/%s",
		cfg.RabbitMQ.URI, cfg.PushQueueName, cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)

	return &cfg, nil
}
