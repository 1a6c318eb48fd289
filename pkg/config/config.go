package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type RateLimitConfig struct {
	// API throttles subscription management, Trigger throttles event
	// ingestion, Webhook throttles outbound deliveries per target host.
	API     RateLimitBucketConfig `yaml:"api"`
	Trigger RateLimitBucketConfig `yaml:"trigger"`
	Webhook RateLimitBucketConfig `yaml:"webhook"`
}

type Config struct {
	Port          int    `yaml:"port"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	Timezone      string `yaml:"timezone"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	Env           string `yaml:"env"`

	DeliveryTimeoutSeconds int    `yaml:"deliveryTimeoutSeconds"`
	DeliveryMaxAttempts    int    `yaml:"deliveryMaxAttempts"`
	BackoffPolicy          string `yaml:"backoffPolicy"`
	BackoffBaseSeconds     int    `yaml:"backoffBaseSeconds"`
	BackoffMaxSeconds      int    `yaml:"backoffMaxSeconds"`
	DisableThreshold       int    `yaml:"disableThreshold"`
	DeliveryLogMaxEntries  int    `yaml:"deliveryLogMaxEntries"`
	ResponseBodyMaxBytes   int64  `yaml:"responseBodyMaxBytes"`

	IndexSweepIntervalSeconds int `yaml:"indexSweepIntervalSeconds"`

	AuthProvider            string `yaml:"authProvider"`
	StaticAuthToken         string `yaml:"staticAuthToken"`
	JwksURL                 string `yaml:"jwksUrl"`
	JwksIssuer              string `yaml:"jwksIssuer"`
	JwksAudience            string `yaml:"jwksAudience"`
	AllowedClockSkewSeconds int    `yaml:"allowedClockSkewSeconds"`

	// AuthConfig is composed from the provider fields above by LoadConfig and
	// handed to the auth provider registry.
	AuthConfig json.RawMessage `yaml:"-"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`

	TracingEnabled      bool    `yaml:"tracingEnabled"`
	TracingServiceName  string  `yaml:"tracingServiceName"`
	TracingOTLPEndpoint string  `yaml:"tracingOtlpEndpoint"`
	TracingOTLPInsecure bool    `yaml:"tracingOtlpInsecure"`
	TracingSampleRatio  float64 `yaml:"tracingSampleRatio"`
}

// LoadConfig reads the yaml file at filePath, applies environment overrides
// and defaults. The file must exist.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.finish()
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but tolerates an empty path or a
// missing file, in which case environment variables and defaults alone apply.
func LoadConfigOptional(filePath string) (*Config, error) {
	var c Config
	filePath = strings.TrimSpace(filePath)
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			if err := yaml.Unmarshal(data, &c); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	c.finish()
	return &c, nil
}

func (c *Config) finish() {
	c.applyEnv()
	c.applyDefaults()
	c.composeAuthConfig()

	log.Printf("hookq config: {Port:%d Redis:%s TZ:%s Env:%s Attempts:%d Timeout:%ds Auth:%s}\n",
		c.Port, c.RedisAddr, c.Timezone, c.Env, c.DeliveryMaxAttempts, c.DeliveryTimeoutSeconds, c.AuthProvider)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("DELIVERY_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DeliveryTimeoutSeconds = n
		}
	}
	if v := os.Getenv("DELIVERY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DeliveryMaxAttempts = n
		}
	}
	if v := os.Getenv("BACKOFF_POLICY"); v != "" {
		c.BackoffPolicy = v
	}
	if v := os.Getenv("BACKOFF_BASE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BackoffBaseSeconds = n
		}
	}
	if v := os.Getenv("BACKOFF_MAX_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BackoffMaxSeconds = n
		}
	}
	if v := os.Getenv("DISABLE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DisableThreshold = n
		}
	}
	if v := os.Getenv("DELIVERY_LOG_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DeliveryLogMaxEntries = n
		}
	}
	if v := os.Getenv("RESPONSE_BODY_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ResponseBodyMaxBytes = n
		}
	}
	if v := os.Getenv("INDEX_SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IndexSweepIntervalSeconds = n
		}
	}
	if v := os.Getenv("AUTH_PROVIDER"); v != "" {
		c.AuthProvider = v
	}
	if v := os.Getenv("STATIC_AUTH_TOKEN"); v != "" {
		c.StaticAuthToken = v
	}
	if v := os.Getenv("JWKS_URL"); v != "" {
		c.JwksURL = v
	}
	if v := os.Getenv("JWKS_ISSUER"); v != "" {
		c.JwksIssuer = v
	}
	if v := os.Getenv("JWKS_AUDIENCE"); v != "" {
		c.JwksAudience = v
	}
	if v := os.Getenv("ALLOWED_CLOCK_SKEW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AllowedClockSkewSeconds = n
		}
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		c.TracingEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TRACING_SERVICE_NAME"); v != "" {
		c.TracingServiceName = v
	}
	if v := os.Getenv("TRACING_OTLP_ENDPOINT"); v != "" {
		c.TracingOTLPEndpoint = v
	}
	if v := os.Getenv("TRACING_OTLP_INSECURE"); v != "" {
		c.TracingOTLPInsecure = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TRACING_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TracingSampleRatio = f
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.DeliveryTimeoutSeconds <= 0 {
		c.DeliveryTimeoutSeconds = 10
	}
	if c.DeliveryMaxAttempts <= 0 {
		c.DeliveryMaxAttempts = 3
	}
	if c.BackoffPolicy == "" {
		c.BackoffPolicy = "exponential"
	}
	if c.BackoffBaseSeconds <= 0 {
		c.BackoffBaseSeconds = 1
	}
	if c.BackoffMaxSeconds <= 0 {
		c.BackoffMaxSeconds = 60
	}
	if c.DisableThreshold <= 0 {
		c.DisableThreshold = 10
	}
	if c.DeliveryLogMaxEntries <= 0 {
		c.DeliveryLogMaxEntries = 1000
	}
	if c.ResponseBodyMaxBytes <= 0 {
		c.ResponseBodyMaxBytes = 2048
	}
	if c.IndexSweepIntervalSeconds <= 0 {
		c.IndexSweepIntervalSeconds = 300
	}
	if c.AllowedClockSkewSeconds <= 0 {
		c.AllowedClockSkewSeconds = 60
	}
	if c.TracingSampleRatio <= 0 || c.TracingSampleRatio > 1 {
		c.TracingSampleRatio = 1
	}
}

func (c *Config) composeAuthConfig() {
	switch c.AuthProvider {
	case "static":
		c.AuthConfig, _ = json.Marshal(map[string]any{"token": c.StaticAuthToken})
	case "jwks":
		c.AuthConfig, _ = json.Marshal(map[string]any{
			"jwksUrl":            c.JwksURL,
			"issuer":             c.JwksIssuer,
			"audience":           c.JwksAudience,
			"clockSkewSeconds":   c.AllowedClockSkewSeconds,
			"httpTimeoutSeconds": 5,
		})
	}
}

func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev"

	switch c.AuthProvider {
	case "":
		if !dev {
			errs = append(errs, "authProvider is required in non-dev")
		}
	case "static":
		if strings.TrimSpace(c.StaticAuthToken) == "" {
			errs = append(errs, "staticAuthToken is required for the static auth provider")
		}
		if env == "prod" || env == "production" {
			errs = append(errs, "static auth provider is not allowed in production")
		}
	case "jwks":
		if c.JwksURL == "" {
			errs = append(errs, "jwksUrl is required for the jwks auth provider")
		} else {
			u, err := url.Parse(c.JwksURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, "jwksUrl must be a valid http(s) URL")
			}
		}
		if c.JwksIssuer == "" {
			errs = append(errs, "jwksIssuer is required for the jwks auth provider")
		}
		if c.JwksAudience == "" {
			errs = append(errs, "jwksAudience is required for the jwks auth provider")
		}
	}

	switch c.BackoffPolicy {
	case "exponential", "fixed", "linear", "exp_equal_jitter", "exp_full_jitter":
	default:
		errs = append(errs, fmt.Sprintf("unknown backoffPolicy %q", c.BackoffPolicy))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
