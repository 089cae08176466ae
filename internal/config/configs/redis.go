package configs

import "time"

// Redis configures the distributed lock backend.
type Redis struct {
	// URL is a redis:// connection string. Empty disables Redis.
	URL string `env:"URL"`
	// LockTTL is how long a lock survives a crashed holder.
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"2m"`
	// LockWait bounds how long an operation waits for a busy campaign.
	LockWait time.Duration `env:"LOCK_WAIT" envDefault:"10s"`
}

// Enabled reports whether a Redis URL is configured.
func (r Redis) Enabled() bool { return r.URL != "" }
