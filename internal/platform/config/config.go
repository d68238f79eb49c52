package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration. Keep infra values here and
// pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	UnitURL     string

	// TimerEventThreadNum gates the Timer sink: zero
	// disables it.
	TimerEventThreadNum int
	// MaxEventHop is the ceiling judge enforces on ruleChain.
	MaxEventHop int
	// EventBusRuleTopicName is the control-plane topic the subscriber
	// consumes from.
	EventBusRuleTopicName string
	// MiscPoolSize bounds the MISC action worker pool.
	MiscPoolSize int64
}

// Load reads process configuration from the environment, falling back to
// defaults suitable for local/dev runs.
func Load() (Config, error) {
	cfg := Config{
		ServiceName:           envOr("SERVICE_NAME", "rule-engine"),
		HTTPPort:              envOr("HTTP_PORT", "8080"),
		PostgresDSN:           os.Getenv("POSTGRES_DSN"),
		UnitURL:               envOr("UNIT_URL", "https://localhost"),
		TimerEventThreadNum:   envInt("TIMER_EVENT_THREAD_NUM", 0),
		MaxEventHop:           envInt("MAX_EVENT_HOP", 5),
		EventBusRuleTopicName: envOr("EVENT_BUS_RULE_TOPIC_NAME", "rule-engine.control"),
		MiscPoolSize:          int64(envInt("MISC_POOL_SIZE", 16)),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
