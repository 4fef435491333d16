package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"autoquote/pkg/client"
	"autoquote/pkg/db/postgres"
	kafka_config "autoquote/pkg/kafka/config"
	"autoquote/pkg/logger"
	"autoquote/pkg/sanitizer"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port      string `env:"PORT" env-default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`

	StoreDriver string `env:"STORE_DRIVER" env-default:"mongo"`

	MongoURI          string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabaseName string        `env:"MONGO_DATABASE_NAME" env-default:"autoquote"`
	MongoConnTimeout  time.Duration `env:"MONGO_CONN_TIMEOUT" env-default:"10s"`

	PostgresDSN      string        `env:"POSTGRES_DSN"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	PostgresMinConns int32         `env:"POSTGRES_MIN_CONNS" env-default:"1"`
	PostgresTimeout  time.Duration `env:"POSTGRES_CONN_TIMEOUT" env-default:"10s"`

	WhatsApp WhatsAppConfig
	Template TemplateConfig

	PhoneDefaultRegion string `env:"PHONE_DEFAULT_REGION" env-default:"PT"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" env-default:"5"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" env-default:"24h"`
	MaxRequestSize int           `env:"MAX_REQUEST_SIZE" env-default:"1048576"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" env-default:"45s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"30s"`

	Kafka kafka_config.Config

	Log    *logger.Logger `env:"-"`
	Client *client.Client `env:"-"`
}

// WhatsAppConfig holds the Cloud API credentials and the owner alert template.
type WhatsAppConfig struct {
	Token         string `env:"WHATSAPP_TOKEN"`
	PhoneNumberID string `env:"WHATSAPP_PHONE_ID"`
	OwnerPhone    string `env:"OWNER_PHONE"`

	AppSecret   string `env:"WHATSAPP_APP_SECRET"`
	VerifyToken string `env:"WHATSAPP_VERIFY_TOKEN"`

	BaseURL           string        `env:"WHATSAPP_BASE_URL" env-default:"https://graph.facebook.com"`
	APIVersion        string        `env:"WHATSAPP_API_VERSION" env-default:"v22.0"`
	TemplateName      string        `env:"WHATSAPP_TEMPLATE_NAME" env-default:"info_update2"`
	TemplateLanguage  string        `env:"WHATSAPP_TEMPLATE_LANGUAGE" env-default:"pt_PT"`
	Timeout           time.Duration `env:"WHATSAPP_TIMEOUT" env-default:"10s"`
	RequestsPerSecond float64       `env:"WHATSAPP_RPS" env-default:"5"`
}

// Enabled reports whether owner notifications can be sent.
func (w WhatsAppConfig) Enabled() bool {
	return w.Token != "" && w.PhoneNumberID != "" && w.OwnerPhone != ""
}

// TemplateConfig bounds the template parameters built from a quote.
type TemplateConfig struct {
	NameMaxLen    int    `env:"TEMPLATE_NAME_MAX_LEN" env-default:"200"`
	DetailsMaxLen int    `env:"TEMPLATE_DETAILS_MAX_LEN" env-default:"1000"`
	Separator     string `env:"TEMPLATE_SEPARATOR"`
	DefaultName   string `env:"TEMPLATE_DEFAULT_NAME" env-default:"Cliente"`
}

// Load reads the configuration (ENV > file > defaults), validates it and
// logs it. Any problem is fatal. The file is CONFIG_PATH, or ./.env when
// present.
func Load(serviceName string) *Config {
	cfg, err := Read()

	log := logger.New(logger.Config{
		Level:     levelOr(cfg, logger.INFO),
		Format:    formatOr(cfg, logger.JSON),
		AddSource: true,
		Service:   serviceName,
	})
	if err != nil {
		log.Fatal("Failed to read configuration", "error", err)
	}

	cfg.Log = log
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Read loads the configuration without validating it.
func Read() (*Config, error) {
	var cfg Config

	path := os.Getenv(EnvConfigPath)
	explicitPath := path != ""
	if !explicitPath {
		path = DefaultConfigPath
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return &cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return &cfg, fmt.Errorf("config: file %s: %w", path, statErr)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return &cfg, fmt.Errorf("config: read env: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Template.Separator == "" {
		cfg.Template.Separator = DefaultTemplateSeparator
	}
	if owner := sanitizer.NormalizePhone(cfg.WhatsApp.OwnerPhone, cfg.PhoneDefaultRegion); owner != "" {
		cfg.WhatsApp.OwnerPhone = owner
	}
}

func levelOr(cfg *Config, fallback string) string {
	if cfg == nil || cfg.LogLevel == "" {
		return fallback
	}
	return cfg.LogLevel
}

func formatOr(cfg *Config, fallback string) string {
	if cfg == nil || cfg.LogFormat == "" {
		return fallback
	}
	return cfg.LogFormat
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, postgres.PoolConfig{
		DSN:      cfg.PostgresDSN,
		MaxConns: cfg.PostgresMaxConns,
		MinConns: cfg.PostgresMinConns,
	}, cfg.PostgresTimeout)
}

// SetStore connects the driver selected by STORE_DRIVER.
func (cfg *Config) SetStore() {
	if cfg.StoreDriver == StorePostgres {
		cfg.SetPostgres()
		return
	}
	cfg.SetMongo()
}

var (
	reMongoURI    = regexp.MustCompile(`^mongodb(\+srv)?://`)
	reRegion      = regexp.MustCompile(`^[A-Z]{2}$`)
	reAPIVersion  = regexp.MustCompile(`^v\d+\.\d+$`)
	reTemplateTag = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, "MongoURI cannot be empty")
		} else if !reMongoURI.MatchString(cfg.MongoURI) {
			errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", client.RedactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errs = append(errs, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, "PostgresDSN cannot be empty when StoreDriver is postgres")
		}
		if cfg.PostgresMaxConns <= 0 || cfg.PostgresMinConns < 0 || cfg.PostgresMinConns > cfg.PostgresMaxConns {
			errs = append(errs, fmt.Sprintf("Postgres pool must satisfy 0 <= min (%d) <= max (%d), max > 0", cfg.PostgresMinConns, cfg.PostgresMaxConns))
		}
		if cfg.PostgresTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("PostgresTimeout must be positive, got: %s", cfg.PostgresTimeout))
		}
	default:
		errs = append(errs, fmt.Sprintf("StoreDriver must be one of [mongo, postgres], got: %s", cfg.StoreDriver))
	}

	errs = append(errs, cfg.validateWhatsApp()...)

	if cfg.Template.NameMaxLen < 4 {
		errs = append(errs, fmt.Sprintf("TemplateNameMaxLen must be at least 4, got: %d", cfg.Template.NameMaxLen))
	}
	if cfg.Template.DetailsMaxLen < 4 {
		errs = append(errs, fmt.Sprintf("TemplateDetailsMaxLen must be at least 4, got: %d", cfg.Template.DetailsMaxLen))
	}

	if !reRegion.MatchString(cfg.PhoneDefaultRegion) {
		errs = append(errs, fmt.Sprintf("PhoneDefaultRegion must be an ISO 3166-1 alpha-2 code, got: %s", cfg.PhoneDefaultRegion))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	errs = append(errs, cfg.Kafka.Validate()...)

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return errors.New(errMsg)
	}

	return nil
}

func (cfg *Config) validateWhatsApp() []string {
	var errs []string
	w := cfg.WhatsApp

	set := 0
	for _, v := range []string{w.Token, w.PhoneNumberID, w.OwnerPhone} {
		if v != "" {
			set++
		}
	}
	if set > 0 && set < 3 {
		errs = append(errs, "WhatsAppToken, WhatsAppPhoneID and OwnerPhone must be set together")
	}
	if w.OwnerPhone != "" && sanitizer.NormalizePhone(w.OwnerPhone, cfg.PhoneDefaultRegion) == "" {
		errs = append(errs, fmt.Sprintf("OwnerPhone is not a valid phone number, got: %s", w.OwnerPhone))
	}

	if !reAPIVersion.MatchString(w.APIVersion) {
		errs = append(errs, fmt.Sprintf("WhatsAppAPIVersion must look like v22.0, got: %s", w.APIVersion))
	}
	if !reTemplateTag.MatchString(w.TemplateName) {
		errs = append(errs, fmt.Sprintf("WhatsAppTemplateName must be lower case letters, digits and underscores, got: %s", w.TemplateName))
	}
	if w.TemplateLanguage == "" {
		errs = append(errs, "WhatsAppTemplateLanguage cannot be empty")
	}
	if w.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("WhatsAppTimeout must be positive, got: %s", w.Timeout))
	}
	if w.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("WhatsAppRPS cannot be negative, got: %v", w.RequestsPerSecond))
	}
	return errs
}

func (cfg *Config) LogConfiguration() {
	attrs := []any{
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"mongo_uri", client.RedactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"postgres_dsn_set", cfg.PostgresDSN != "",
		"whatsapp_enabled", cfg.WhatsApp.Enabled(),
		"whatsapp_owner_phone", sanitizer.MaskPhone(cfg.WhatsApp.OwnerPhone),
		"whatsapp_secret_set", cfg.WhatsApp.AppSecret != "",
		"whatsapp_verify_token_set", cfg.WhatsApp.VerifyToken != "",
		"whatsapp_api_version", cfg.WhatsApp.APIVersion,
		"whatsapp_template", cfg.WhatsApp.TemplateName,
		"whatsapp_template_language", cfg.WhatsApp.TemplateLanguage,
		"template_name_max_len", cfg.Template.NameMaxLen,
		"template_details_max_len", cfg.Template.DetailsMaxLen,
		"phone_default_region", cfg.PhoneDefaultRegion,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"shutdown_timeout", cfg.ShutdownTimeout,
	}
	cfg.Log.Info("Configuration loaded successfully", append(attrs, cfg.Kafka.LogAttrs()...)...)
}
