// Package config reads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogLevel    string
	LogFile     string

	// DatabaseURL selects Postgres; empty keeps everything in memory.
	DatabaseURL string

	KafkaBrokers []string
	KafkaTopic   string

	NATSURL   string
	NATSQueue string

	// CatalogURL points at the shopping-store catalog; empty uses the in-memory catalog.
	CatalogURL     string
	CatalogTimeout time.Duration

	TracesExporter string
	OTLPEndpoint   string

	ShutdownTimeout time.Duration

	DeliveryCost     delivery.CostParams
	WarehouseAddress delivery.Address
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv. Malformed values are reported together.
func LoadFrom(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}
	cfg := Config{
		ServiceName:     r.str("SERVICE_NAME", "minishop-fulfillment"),
		Env:             r.str("ENV", "dev"),
		HTTPAddr:        r.str("HTTP_ADDR", ":8080"),
		LogLevel:        r.str("LOG_LEVEL", "info"),
		LogFile:         r.str("LOG_FILE", ""),
		DatabaseURL:     r.str("DATABASE_URL", ""),
		KafkaBrokers:    r.list("KAFKA_BROKERS"),
		KafkaTopic:      r.str("KAFKA_TOPIC", "fulfillment.events"),
		NATSURL:         r.str("NATS_URL", ""),
		NATSQueue:       r.str("NATS_QUEUE", "fulfillment"),
		CatalogURL:      r.str("CATALOG_URL", ""),
		CatalogTimeout:  r.duration("CATALOG_TIMEOUT", 2*time.Second),
		TracesExporter:  r.str("OTEL_TRACES_EXPORTER", ""),
		OTLPEndpoint:    r.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		WarehouseAddress: delivery.Address{
			Country: r.str("WAREHOUSE_COUNTRY", "PL"),
			City:    r.str("WAREHOUSE_CITY", "ADDRESS_1"),
			Street:  r.str("WAREHOUSE_STREET", "ADDRESS_1"),
			House:   r.str("WAREHOUSE_HOUSE", "1"),
			Flat:    r.str("WAREHOUSE_FLAT", ""),
		},
	}

	cost := delivery.DefaultCostParams()
	cost.BaseRate = r.dec("DELIVERY_BASE_RATE", cost.BaseRate)
	cost.FragileMultiplier = r.dec("DELIVERY_FRAGILE_MULTIPLIER", cost.FragileMultiplier)
	cost.WeightMultiplier = r.dec("DELIVERY_WEIGHT_MULTIPLIER", cost.WeightMultiplier)
	cost.VolumeMultiplier = r.dec("DELIVERY_VOLUME_MULTIPLIER", cost.VolumeMultiplier)
	cost.AddressMultiplier = r.dec("DELIVERY_ADDRESS_MULTIPLIER", cost.AddressMultiplier)
	if raw := r.str("DELIVERY_WAREHOUSE_MULTIPLIERS", ""); raw != "" {
		cost.WarehouseMultipliers = r.multipliers("DELIVERY_WAREHOUSE_MULTIPLIERS", raw)
	}
	cfg.DeliveryCost = cost

	if err := cfg.WarehouseAddress.Validate(); err != nil {
		r.fail("WAREHOUSE_*", err)
	}
	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
}

func (r *reader) str(key, def string) string {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	return v
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) dec(key string, def decimal.Decimal) decimal.Decimal {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	if d.IsNegative() {
		r.fail(key, errors.New("must not be negative"))
		return def
	}
	return d
}

// multipliers parses "KEY=decimal,KEY=decimal".
func (r *reader) multipliers(key, raw string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			r.fail(key, fmt.Errorf("malformed pair %q", pair))
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			r.fail(key, fmt.Errorf("%s: %w", name, err))
			continue
		}
		out[name] = d
	}
	return out
}
