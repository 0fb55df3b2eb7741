package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Configはアプリ全体の設定
type Config struct {
	Port      string `env:"PORT" env-default:"3001"`
	GoEnv     string `env:"GO_ENV" env-default:"development"`
	ClientURL string `env:"CLIENT_URL" env-default:"http://localhost:5173"` // CORSの許可オリジン
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`

	DatabaseURL      string `env:"DATABASE_URL"` // あれば最優先
	PostgresHost     string `env:"POSTGRES_HOST" env-default:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" env-default:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" env-default:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" env-default:"ordinary_note"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" env-default:"disable"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID" env-required:"true"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" env-required:"true"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" env-required:"true"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"336h"`
	TokenLeeway      time.Duration `env:"TOKEN_LEEWAY" env-default:"0s"` // 時計ずれの許容

	// 空ならレート制限なし
	RedisAddr string `env:"REDIS_ADDR"`

	// X-Forwarded-Forを信頼するプロキシ（CIDRかIP）。空なら接続元アドレスだけを見る
	TrustedProxies []string `env:"TRUSTED_PROXIES" env-separator:","`

	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" env-default:"10s"`
	GoogleVerifyTimeout  time.Duration `env:"GOOGLE_VERIFY_TIMEOUT" env-default:"5s"`
	TokenCleanupInterval time.Duration `env:"TOKEN_CLEANUP_INTERVAL" env-default:"1h"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Loadは.env（あれば）と環境変数から読む
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	//空文字で設定されていても未設定扱い
	for key, v := range map[string]string{
		"GOOGLE_CLIENT_ID":   c.GoogleClientID,
		"JWT_ACCESS_SECRET":  c.JWTAccessSecret,
		"JWT_REFRESH_SECRET": c.JWTRefreshSecret,
	} {
		if v == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.GoEnv != EnvDevelopment && c.GoEnv != EnvProduction {
		return fmt.Errorf("GO_ENV must be %q or %q", EnvDevelopment, EnvProduction)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.TokenLeeway < 0 {
		return fmt.Errorf("TOKEN_LEEWAY must not be negative")
	}
	if c.TokenCleanupInterval <= 0 {
		return fmt.Errorf("TOKEN_CLEANUP_INTERVAL must be positive")
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	return nil
}

// TRUSTED_PROXIESをIPNetにする。単体IPは/32（IPv6は/128）扱い。
func (c Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid range %q", raw)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == EnvProduction
}

// DATABASE_URLがあればそれ、なければPOSTGRES_*から組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// ":3001"形式
func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}
