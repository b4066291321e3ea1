package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Bucket key strategies for RATE_LIMIT_KEY_STRATEGY.
const (
    KeyByIP      = "ip"       // one bucket per client address
    KeyByRoute   = "route"    // one bucket per route, shared by every client
    KeyByIPRoute = "ip_route" // one bucket per client and route
)

// RateLimitConfig sizes the Redis token bucket that guards
// POST /registrations.  A client may submit Capacity registrations in a
// burst, then one more per RefillInterval/RefillTokens.  Idle buckets
// expire after TTL.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Out of range numbers
// are clamped and an unknown key strategy falls back to ip_route.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    strings.ToLower(envStr("RATE_LIMIT_KEY_STRATEGY", KeyByIPRoute)),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "eco:rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    switch cfg.KeyStrategy {
    case KeyByIP, KeyByRoute, KeyByIPRoute:
    default:
        cfg.KeyStrategy = KeyByIPRoute
    }
    cfg.Capacity = max(cfg.Capacity, 1)
    cfg.RefillTokens = max(cfg.RefillTokens, 1)
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // a bucket must outlive the time it takes to refill from empty
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
    return cfg
}

func envStr(k, d string) string {
    if v := strings.TrimSpace(os.Getenv(k)); v != "" {
        return v
    }
    return d
}

// envBool accepts strconv.ParseBool forms plus yes/no and on/off.
func envBool(k string, d bool) bool {
    v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
    switch v {
    case "":
        return d
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    if b, err := strconv.ParseBool(v); err == nil {
        return b
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil {
        return dur
    }
    return d
}
