// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	BaseURL     string   `yaml:"base_url"` // public URL used to build callback links
	JWTSecret   string   `yaml:"jwt_secret"`
	AdminEmails []string `yaml:"admin_emails"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GatewayConfig struct {
	SecretKey     string `yaml:"secret_key"`
	PublicKey     string `yaml:"public_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
	Currency      string `yaml:"currency"`
}

type PaymentConfig struct {
	Default  string        `yaml:"default"` // gateway identifier used when the caller names none
	Paystack GatewayConfig `yaml:"paystack"`
	Stripe   GatewayConfig `yaml:"stripe"`
}

type ProvisioningConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"` // initial backoff, doubled per attempt
}

type WooCommerceConfig struct {
	BaseURL        string `yaml:"base_url"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	WebhookSecret  string `yaml:"webhook_secret"`
}

type SchedulerConfig struct {
	ReconcileInterval  time.Duration `yaml:"reconcile_interval"`
	ExpiryInterval     time.Duration `yaml:"expiry_interval"`
	RenewalInterval    time.Duration `yaml:"renewal_interval"`
	PlanChangeInterval time.Duration `yaml:"plan_change_interval"`
	PlanSyncInterval   time.Duration `yaml:"plan_sync_interval"`
	ReminderDays       []int         `yaml:"reminder_days"`
}

type WorkerConfig struct {
	Count     int `yaml:"count"`
	QueueSize int `yaml:"queue_size"`
}

type NotifyConfig struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	From     string `yaml:"from"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Payment      PaymentConfig      `yaml:"payment"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	WooCommerce  WooCommerceConfig  `yaml:"woocommerce"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Worker       WorkerConfig       `yaml:"worker"`
	Notify       NotifyConfig       `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	// .env is optional; real deployments inject env vars directly.
	_ = godotenv.Load()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("server.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// yaml file. Only secret-bearing fields are overridable.
func (c *Config) applyEnvOverrides() {
	override(&c.Database.URL, "DATABASE_URL")
	override(&c.Redis.URL, "REDIS_URL")
	override(&c.Redis.Password, "REDIS_PASSWORD")
	override(&c.Server.JWTSecret, "JWT_SECRET")
	override(&c.Payment.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	override(&c.Payment.Paystack.PublicKey, "PAYSTACK_PUBLIC_KEY")
	override(&c.Payment.Paystack.WebhookSecret, "PAYSTACK_WEBHOOK_SECRET")
	override(&c.Payment.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	override(&c.Payment.Stripe.PublicKey, "STRIPE_PUBLIC_KEY")
	override(&c.Payment.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	override(&c.Provisioning.APIKey, "PROVISIONING_API_KEY")
	override(&c.WooCommerce.ConsumerKey, "WC_CONSUMER_KEY")
	override(&c.WooCommerce.ConsumerSecret, "WC_CONSUMER_SECRET")
	override(&c.WooCommerce.WebhookSecret, "WC_WEBHOOK_SECRET")
	override(&c.Notify.SMTPPass, "SMTP_PASSWORD")
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Payment.Default == "" {
		c.Payment.Default = "paystack"
	}
	if c.Payment.Paystack.BaseURL == "" {
		c.Payment.Paystack.BaseURL = "https://api.paystack.co"
	}
	if c.Payment.Paystack.Currency == "" {
		c.Payment.Paystack.Currency = "NGN"
	}
	if c.Payment.Stripe.Currency == "" {
		c.Payment.Stripe.Currency = "USD"
	}
	if c.Provisioning.Timeout <= 0 {
		c.Provisioning.Timeout = 30 * time.Second
	}
	if c.Provisioning.MaxAttempts <= 0 {
		c.Provisioning.MaxAttempts = 3
	}
	if c.Provisioning.RetryDelay <= 0 {
		c.Provisioning.RetryDelay = 30 * time.Second
	}
	if c.Scheduler.ReconcileInterval <= 0 {
		c.Scheduler.ReconcileInterval = 10 * time.Minute
	}
	if c.Scheduler.ExpiryInterval <= 0 {
		c.Scheduler.ExpiryInterval = time.Hour
	}
	if c.Scheduler.RenewalInterval <= 0 {
		c.Scheduler.RenewalInterval = time.Hour
	}
	if c.Scheduler.PlanChangeInterval <= 0 {
		c.Scheduler.PlanChangeInterval = 5 * time.Minute
	}
	if c.Scheduler.PlanSyncInterval <= 0 {
		c.Scheduler.PlanSyncInterval = 6 * time.Hour
	}
	if len(c.Scheduler.ReminderDays) == 0 {
		c.Scheduler.ReminderDays = []int{7, 3, 1}
	}
	if c.Worker.Count <= 0 {
		c.Worker.Count = 4
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = 128
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
