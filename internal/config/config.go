package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DefaultQuestion string // served when a request names no ?id
	SeedDemo        bool   // load the built-in demo questions into an empty store
	SeedFile        string // YAML questions applied at startup
	SeedWatch       bool   // re-apply SeedFile whenever it changes

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	BlobDriver   string // fs|minio
	BlobBasePath string // for fs

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddr     string // empty disables the document cache
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	AMQPURL   string // empty disables event publishing
	AMQPQueue string
	SiteID    string // stamped on every event

	HMACSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	GradingMaxEdit int

	LogLevel string
	LogDev   bool

	// learner client
	ServerURL     string
	ClientTimeout time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("public_url", "")
	v.SetDefault("default_question", "demo-living-things")
	v.SetDefault("seed.demo", true)
	v.SetDefault("seed.file", "")
	v.SetDefault("seed.watch", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "")

	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.base_path", "./data")
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "quiz-submissions")
	v.SetDefault("minio.use_ssl", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "5m")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.queue", "quiz.events")
	v.SetDefault("site_id", "local")

	v.SetDefault("auth.hmac_secret", "supersecret-dev-key")
	v.SetDefault("admin.user", "admin")
	v.SetDefault("admin.pass_hash", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji")

	v.SetDefault("cors.origins_online", "https://quiz.mindengage.ai")
	v.SetDefault("cors.origins_offline", "http://localhost:3000,http://localhost:3010")

	v.SetDefault("grading.max_edit", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dev", false)

	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.timeout", "10s")
}

// Load reads defaults, then the optional config file, then QUIZ_* env vars
// (QUIZ_DB_DRIVER overrides db.driver). An explicit path that cannot be read
// is an error; a missing quiz.{toml,yaml} in the working directory is not.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("quiz")
	}

	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Mode:            Mode(v.GetString("mode")),
		HTTPAddr:        v.GetString("http_addr"),
		PublicURL:       v.GetString("public_url"),
		DefaultQuestion: v.GetString("default_question"),
		SeedDemo:        v.GetBool("seed.demo"),
		SeedFile:        v.GetString("seed.file"),
		SeedWatch:       v.GetBool("seed.watch"),

		DBDriver: v.GetString("db.driver"),
		DBDSN:    v.GetString("db.dsn"),

		BlobDriver:   v.GetString("blob.driver"),
		BlobBasePath: v.GetString("blob.base_path"),

		MinioEndpoint:  v.GetString("minio.endpoint"),
		MinioAccessKey: v.GetString("minio.access_key"),
		MinioSecretKey: v.GetString("minio.secret_key"),
		MinioBucket:    v.GetString("minio.bucket"),
		MinioUseSSL:    v.GetBool("minio.use_ssl"),

		RedisAddr:     v.GetString("redis.addr"),
		RedisPassword: v.GetString("redis.password"),
		RedisDB:       v.GetInt("redis.db"),
		RedisTTL:      v.GetDuration("redis.ttl"),

		AMQPURL:   v.GetString("amqp.url"),
		AMQPQueue: v.GetString("amqp.queue"),
		SiteID:    v.GetString("site_id"),

		HMACSecret:    v.GetString("auth.hmac_secret"),
		AdminUser:     v.GetString("admin.user"),
		AdminPassHash: v.GetString("admin.pass_hash"),

		CORSOriginsOnline:  list(v, "cors.origins_online"),
		CORSOriginsOffline: list(v, "cors.origins_offline"),

		GradingMaxEdit: v.GetInt("grading.max_edit"),

		LogLevel: v.GetString("log.level"),
		LogDev:   v.GetBool("log.dev"),

		ServerURL:     v.GetString("client.server_url"),
		ClientTimeout: v.GetDuration("client.timeout"),
	}

	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return Config{}, fmt.Errorf("mode: want offline or online, got %q", c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("db.driver: unsupported %q", c.DBDriver)
	}
	switch c.BlobDriver {
	case "fs", "minio":
	default:
		return Config{}, fmt.Errorf("blob.driver: unsupported %q", c.BlobDriver)
	}
	if c.SeedWatch && c.SeedFile == "" {
		return Config{}, errors.New("seed.watch needs seed.file")
	}
	if c.Mode == ModeOnline && c.HMACSecret == "supersecret-dev-key" {
		return Config{}, errors.New("auth.hmac_secret must be set in online mode")
	}
	return c, nil
}

// CORSOrigins picks the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// list accepts either a TOML/YAML array or a comma separated string, the form
// env vars arrive in.
func list(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).([]any); ok {
		out := make([]string, 0, len(raw))
		for _, e := range raw {
			if s := strings.TrimSpace(fmt.Sprint(e)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	parts := strings.Split(v.GetString(key), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
