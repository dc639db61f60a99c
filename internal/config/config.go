// Package config provides runtime configuration for the register terminal
// and the register simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rl1809/pos-register/internal/core/domain"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds every knob of both binaries. Each binary reads what it needs.
type Config struct {
	TerminalID string

	Transport       string
	BackendURL      string
	GRPCAddr        string
	SearchTimeout   time.Duration
	CheckoutTimeout time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	SearchDebounce time.Duration
	SearchLimit    int
	MinQueryLength int

	RedisAddr string
	DraftTTL  time.Duration

	MySQLDSN       string
	JournalWorkers int
	JournalQueue   int

	SpoolDir     string
	PrintCommand []string
	PreviewFile  string

	Labels map[domain.PaymentMethod]string

	LogLevel  string
	LogFormat string

	HTTPListen     string
	GRPCListen     string
	SeedFile       string
	CompanyName    string
	CompanyAddress string
}

// NewViper returns a viper instance with defaults set and POS_* environment
// variables bound (for example POS_BACKEND_URL for backend-url).
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("terminal-id", "till-1")
	v.SetDefault("transport", TransportHTTP)
	v.SetDefault("backend-url", "http://localhost:8080")
	v.SetDefault("grpc-addr", "localhost:9090")
	v.SetDefault("search-timeout", 3*time.Second)
	v.SetDefault("checkout-timeout", time.Duration(0))
	v.SetDefault("breaker-failures", 5)
	v.SetDefault("breaker-timeout", 10*time.Second)

	v.SetDefault("search-debounce", 300*time.Millisecond)
	v.SetDefault("search-limit", 10)
	v.SetDefault("min-query-length", 2)

	v.SetDefault("redis-addr", "")
	v.SetDefault("draft-ttl", 24*time.Hour)

	v.SetDefault("mysql-dsn", "")
	v.SetDefault("journal-workers", 2)
	v.SetDefault("journal-queue", 256)

	v.SetDefault("spool-dir", "spool")
	v.SetDefault("print-command", "")
	v.SetDefault("preview-file", "spool/preview.html")

	v.SetDefault("label-cash", "Dinheiro")
	v.SetDefault("label-card", "Cartao")
	v.SetDefault("label-pix", "Pix")
	v.SetDefault("label-other", "Outro")

	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")

	v.SetDefault("http-listen", ":8080")
	v.SetDefault("grpc-listen", ":9090")
	v.SetDefault("seed-file", "")
	v.SetDefault("company-name", "Mercado Central")
	v.SetDefault("company-address", "")

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a config file into v when path is set.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		TerminalID: strings.TrimSpace(v.GetString("terminal-id")),

		Transport:       strings.ToLower(strings.TrimSpace(v.GetString("transport"))),
		BackendURL:      v.GetString("backend-url"),
		GRPCAddr:        v.GetString("grpc-addr"),
		SearchTimeout:   v.GetDuration("search-timeout"),
		CheckoutTimeout: v.GetDuration("checkout-timeout"),
		BreakerFailures: v.GetUint32("breaker-failures"),
		BreakerTimeout:  v.GetDuration("breaker-timeout"),

		SearchDebounce: v.GetDuration("search-debounce"),
		SearchLimit:    v.GetInt("search-limit"),
		MinQueryLength: v.GetInt("min-query-length"),

		RedisAddr: v.GetString("redis-addr"),
		DraftTTL:  v.GetDuration("draft-ttl"),

		MySQLDSN:       v.GetString("mysql-dsn"),
		JournalWorkers: v.GetInt("journal-workers"),
		JournalQueue:   v.GetInt("journal-queue"),

		SpoolDir:     v.GetString("spool-dir"),
		PrintCommand: strings.Fields(v.GetString("print-command")),
		PreviewFile:  v.GetString("preview-file"),

		Labels: map[domain.PaymentMethod]string{
			domain.PaymentCash:  v.GetString("label-cash"),
			domain.PaymentCard:  v.GetString("label-card"),
			domain.PaymentPix:   v.GetString("label-pix"),
			domain.PaymentOther: v.GetString("label-other"),
		},

		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),

		HTTPListen:     v.GetString("http-listen"),
		GRPCListen:     v.GetString("grpc-listen"),
		SeedFile:       v.GetString("seed-file"),
		CompanyName:    v.GetString("company-name"),
		CompanyAddress: v.GetString("company-address"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error

	if c.TerminalID == "" {
		errs = append(errs, errors.New("terminal-id must not be empty"))
	}
	switch c.Transport {
	case TransportHTTP, TransportGRPC:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", TransportHTTP, TransportGRPC, c.Transport))
	}
	if c.SearchTimeout < 0 || c.CheckoutTimeout < 0 || c.SearchDebounce < 0 {
		errs = append(errs, errors.New("timeouts and debounce must not be negative"))
	}
	if c.SearchLimit < 1 {
		errs = append(errs, errors.New("search-limit must be at least 1"))
	}
	if c.MinQueryLength < 1 {
		errs = append(errs, errors.New("min-query-length must be at least 1"))
	}
	if c.JournalWorkers < 1 || c.JournalQueue < 1 {
		errs = append(errs, errors.New("journal-workers and journal-queue must be at least 1"))
	}

	seen := make(map[string]domain.PaymentMethod, len(c.Labels))
	for method, label := range c.Labels {
		if label == "" {
			errs = append(errs, fmt.Errorf("label for %s must not be empty", method))
			continue
		}
		if other, dup := seen[label]; dup {
			errs = append(errs, fmt.Errorf("label %q used for both %s and %s", label, other, method))
		}
		seen[label] = method
	}

	return errors.Join(errs...)
}
