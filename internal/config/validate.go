package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("quota.daily_limit must be > 0 (got %d)", c.Quota.DailyLimit)
	}

	if c.Cache.Version == "" {
		return fmt.Errorf("cache.version must not be empty")
	}
	if c.Cache.FullHitProb < 0 || c.Cache.FullHitProb > 1 {
		return fmt.Errorf("cache.full_hit_prob must be in [0, 1] (got %v)", c.Cache.FullHitProb)
	}
	if c.Cache.DiscoveryLength <= 0 {
		return fmt.Errorf("cache.discovery_length must be > 0 (got %d)", c.Cache.DiscoveryLength)
	}
	if c.Cache.MixFreshCount <= 0 {
		return fmt.Errorf("cache.mix_fresh_count must be > 0 (got %d)", c.Cache.MixFreshCount)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1 (got %d)", c.Retry.MaxAttempts)
	}
	if c.Retry.RateLimitBase <= 0 || c.Retry.OverloadBase <= 0 {
		return fmt.Errorf("retry backoff bases must be > 0")
	}

	switch c.Safety.Mode {
	case "sanitize", "strict":
	default:
		return fmt.Errorf("safety.mode must be \"sanitize\" or \"strict\" (got %q)", c.Safety.Mode)
	}

	return nil
}
