// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	S3                      `yaml:"s3"`
	SNS                     `yaml:"sns"`
	Reservation             `yaml:"reservation"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CatalogTTL   time.Duration `yaml:"catalog_ttl" env-default:"5m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RabbitMQ настройки публикации событий о новых подписках.
type RabbitMQ struct {
	RabbitMQURL string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	Retries     int           `yaml:"retries" env-default:"5"`
	RetryDelay  time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// S3 настройки хранилища документов.
type S3 struct {
	Bucket       string `yaml:"bucket" env:"S3_BUCKET"`
	Region       string `yaml:"region" env:"S3_REGION" env-default:"eu-west-3"`
	Endpoint     string `yaml:"endpoint" env:"S3_ENDPOINT"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// SNS настройки дополнительной рассылки событий. Пустой TopicARN отключает рассылку.
type SNS struct {
	TopicARN  string `yaml:"topic_arn" env:"SNS_TOPIC_ARN"`
	SNSRegion string `yaml:"region" env:"SNS_REGION" env-default:"eu-west-3"`
}

// Reservation ограничения шага документов и отправки.
type Reservation struct {
	MinDocuments        int           `yaml:"min_documents" env-default:"3"`
	MinCompanyDocuments int           `yaml:"min_company_documents" env-default:"5"`
	MaxTotalSize        int64         `yaml:"max_total_size" env-default:"524288000"`
	SubmitTimeout       time.Duration `yaml:"submit_timeout" env-default:"2m"`
	SessionTTL          time.Duration `yaml:"session_ttl" env-default:"24h"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  CatalogTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"S3:\n"+
			"  Bucket: %s\n"+
			"  Region: %s\n"+
			"Reservation:\n"+
			"  MinDocuments: %d\n"+
			"  MinCompanyDocuments: %d\n"+
			"  MaxTotalSize: %d\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.CatalogTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Bucket,
		c.Region,
		c.MinDocuments,
		c.MinCompanyDocuments,
		c.MaxTotalSize,
	)
}
