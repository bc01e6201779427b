package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "PHOTOSHARE"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret          string
		Issuer             string
		MaxAgeMinutes      int
		RotateAfterMinutes int
		BcryptCost         int
		CookieName         string
		CookieSecure       bool
	}
	Storage struct {
		Driver    string
		LocalDir  string
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
		// Static keys for S3-compatible backends. When empty the default AWS
		// credential chain is used.
		AccessKeyID     string
		SecretAccessKey string
	}
	AWS struct {
		Profile string
	}
	Upload struct {
		MaxBytes int64
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	_ = godotenv.Load() // optional .env, never overrides the real environment

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/photo-share.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.issuer", "photo-share")
	v.SetDefault("auth.maxageminutes", 30*24*60)
	v.SetDefault("auth.rotateafterminutes", 24*60)
	v.SetDefault("auth.bcryptcost", 12)
	v.SetDefault("auth.cookiename", "session-token")
	v.SetDefault("auth.cookiesecure", false)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.localdir", "data/uploads")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "uploads")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskeyid", "")
	v.SetDefault("storage.secretaccesskey", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("upload.maxbytes", 10<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports the first configuration problem that would prevent startup.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required")
	}
	if c.Auth.MaxAgeMinutes <= 0 {
		return errors.New("auth max age must be positive")
	}
	if c.Auth.RotateAfterMinutes < 0 || c.Auth.RotateAfterMinutes >= c.Auth.MaxAgeMinutes {
		return errors.New("auth rotation age must be between 0 and the max age")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.Storage.Driver {
	case "local":
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage local dir is required")
		}
	case "s3":
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("storage bucket is required")
		}
		if (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
			return errors.New("storage access key id and secret access key must be set together")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload max bytes must be positive")
	}
	return nil
}

// MaxAge is the lifetime of an issued session token.
func (c Config) MaxAge() time.Duration {
	return time.Duration(c.Auth.MaxAgeMinutes) * time.Minute
}

// RotateAfter is the token age after which a fresh token is issued.
func (c Config) RotateAfter() time.Duration {
	return time.Duration(c.Auth.RotateAfterMinutes) * time.Minute
}
