package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	PGSQL      PGSQL      `yaml:"pgsql" env-required:"true"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
	Redis      Redis      `yaml:"redis"`
	Storage    Storage    `yaml:"storage"`
	OAuth      OAuth      `yaml:"oauth"`
	Uploads    Uploads    `yaml:"uploads"`
	Worker     Worker     `yaml:"worker"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

type HTTPServer struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
}

type PGSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"agents_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Storage holds the object storage settings. All four of endpoint, access
// key, secret key and bucket must be present for storage to be considered
// configured; otherwise uploads degrade to validate-only.
type Storage struct {
	Endpoint        string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"STORAGE_SECRET_ACCESS_KEY"`
	BucketName      string `yaml:"bucket_name" env:"STORAGE_BUCKET_NAME"`
	UseSSL          bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL" env-default:"false"`
	PresignedURLTTL int    `yaml:"presigned_url_ttl" env:"STORAGE_PRESIGNED_URL_TTL" env-default:"3600"`
}

// Configured reports whether all required storage settings are present
func (s Storage) Configured() bool {
	return s.Endpoint != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" && s.BucketName != ""
}

type OAuth struct {
	GitHub OAuthProvider `yaml:"github"`
	Google OAuthProvider `yaml:"google"`
}

type OAuthProvider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Enabled reports whether the provider has credentials configured
func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type Uploads struct {
	// MaxFiles caps how many files a single submission may stage
	MaxFiles int `yaml:"max_files" env:"UPLOADS_MAX_FILES" env-default:"10"`
	// AllowedUploaders is an explicit allow-list of user IDs permitted to
	// upload agent files. Empty means every authenticated user may upload.
	AllowedUploaders []string `yaml:"allowed_uploaders" env:"UPLOADS_ALLOWED_UPLOADERS"`
}

type Worker struct {
	IntervalMinutes  int `yaml:"interval_minutes" env:"WORKER_INTERVAL_MINUTES" env-default:"10"`
	OrphanAgeMinutes int `yaml:"orphan_age_minutes" env:"WORKER_ORPHAN_AGE_MINUTES" env-default:"30"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
