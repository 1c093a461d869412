package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vhalmd/wa-tg-bridge/internal/bridge"
)

const (
	DefaultPrefix     = "tg:"
	DefaultStore      = "file:store.db?_pragma=foreign_keys(1)"
	DefaultDeviceName = "WA-TG Bridge"
	DefaultRateLimit  = 25
)

var ErrMissing = errors.New("missing required setting")

// Config is built once at startup and never modified afterwards.
type Config struct {
	Prefix   string           `yaml:"prefix"`
	Registry *bridge.Registry `yaml:"-"`

	WhatsAppOwner      string `yaml:"whatsapp_owner"`
	WhatsAppStore      string `yaml:"whatsapp_store"`
	WhatsAppDeviceName string `yaml:"whatsapp_device_name"`

	TelegramOwner     bridge.ID `yaml:"telegram_owner"`
	TelegramToken     string    `yaml:"-"`
	TelegramRateLimit float64   `yaml:"telegram_rate_limit"`

	SendTimeout time.Duration `yaml:"send_timeout"`
	OpenAIKey   string        `yaml:"-"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`

	LogLevel  zerolog.Level `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load parses every setting from lookup. It fails on the first invalid or
// missing value.
func Load(lookup LookupFunc) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	cfg := Config{
		Prefix:             DefaultPrefix,
		WhatsAppStore:      DefaultStore,
		WhatsAppDeviceName: DefaultDeviceName,
		TelegramRateLimit:  DefaultRateLimit,
		SendTimeout:        bridge.DefaultSendTimeout,
		LogLevel:           zerolog.InfoLevel,
		LogFormat:          "console",
	}

	if v, ok := lookup("BRIDGE_PREFIX"); ok && strings.TrimSpace(v) != "" {
		cfg.Prefix = strings.TrimSpace(v)
	}

	ids, err := ParseIDList(get("TELEGRAM_FRIEND_IDS"))
	if err != nil {
		return Config{}, fmt.Errorf("TELEGRAM_FRIEND_IDS: %w", err)
	}
	tags, err := ParseTagList(get("TELEGRAM_FRIEND_TAGS"))
	if err != nil {
		return Config{}, fmt.Errorf("TELEGRAM_FRIEND_TAGS: %w", err)
	}
	cfg.Registry, err = bridge.NewRegistry(ids, tags)
	if err != nil {
		return Config{}, fmt.Errorf("friends: %w", err)
	}

	owner := get("WHATSAPP_OWNER_NUMBER")
	if owner == "" {
		return Config{}, fmt.Errorf("%w: WHATSAPP_OWNER_NUMBER", ErrMissing)
	}
	cfg.WhatsAppOwner, err = NormalizePhone(owner)
	if err != nil {
		return Config{}, fmt.Errorf("WHATSAPP_OWNER_NUMBER: %w", err)
	}

	tgOwner := get("TELEGRAM_OWNER_ID")
	if tgOwner == "" {
		return Config{}, fmt.Errorf("%w: TELEGRAM_OWNER_ID", ErrMissing)
	}
	cfg.TelegramOwner, err = bridge.ParseID(tgOwner)
	if err != nil {
		return Config{}, fmt.Errorf("TELEGRAM_OWNER_ID: %w", err)
	}

	cfg.TelegramToken = get("TELEGRAM_BOT_TOKEN")
	if cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("%w: TELEGRAM_BOT_TOKEN", ErrMissing)
	}

	if v := get("BRIDGE_SEND_TIMEOUT"); v != "" {
		cfg.SendTimeout, err = time.ParseDuration(v)
		if err != nil || cfg.SendTimeout <= 0 {
			return Config{}, fmt.Errorf("BRIDGE_SEND_TIMEOUT: invalid duration %q", v)
		}
	}
	if v := get("TELEGRAM_RATE_LIMIT"); v != "" {
		cfg.TelegramRateLimit, err = strconv.ParseFloat(v, 64)
		if err != nil || cfg.TelegramRateLimit <= 0 {
			return Config{}, fmt.Errorf("TELEGRAM_RATE_LIMIT: invalid rate %q", v)
		}
	}
	if v := get("WHATSAPP_STORE"); v != "" {
		cfg.WhatsAppStore = v
	}
	if v := get("WHATSAPP_DEVICE_NAME"); v != "" {
		cfg.WhatsAppDeviceName = v
	}
	cfg.OpenAIKey = get("OPENAI_API_KEY")
	cfg.MetricsAddr = get("METRICS_ADDR")

	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	if v := get("LOG_FORMAT"); v != "" {
		switch v = strings.ToLower(v); v {
		case "console", "json":
			cfg.LogFormat = v
		default:
			return Config{}, fmt.Errorf("LOG_FORMAT: must be console or json, got %q", v)
		}
	}
	return cfg, nil
}

// ParseIDList parses "1,2, 3". Empty items are skipped.
func ParseIDList(s string) ([]bridge.ID, error) {
	var ids []bridge.ID
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, err := bridge.ParseID(item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseTagList parses "john:111,mary:222". The ID is everything after the
// last colon, so a tag containing a colon is reported instead of silently
// split.
func ParseTagList(s string) ([]bridge.Tag, error) {
	var tags []bridge.Tag
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		i := strings.LastIndexByte(item, ':')
		if i < 0 {
			return nil, fmt.Errorf("entry %q is not tag:id", item)
		}
		name := strings.ToLower(strings.TrimSpace(item[:i]))
		if strings.Contains(name, ":") {
			return nil, fmt.Errorf("tag %q must not contain ':'", name)
		}
		if name == "" {
			return nil, fmt.Errorf("entry %q has an empty tag", item)
		}
		id, err := bridge.ParseID(item[i+1:])
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		tags = append(tags, bridge.Tag{Name: name, ID: id})
	}
	return tags, nil
}

// NormalizePhone strips a leading '+' and common separators from a phone
// number and returns the digits WhatsApp uses as the JID user part.
func NormalizePhone(s string) (string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	s = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(s)
	if s == "" {
		return "", fmt.Errorf("empty phone number")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number %q must contain only digits", s)
		}
	}
	return s, nil
}
