package config

const (
	DefaultPrefix              = "!"
	DefaultAPIURL              = "http://localhost:5000"
	DefaultHealthCheckSchedule = "* * * * *"
)

// DefaultConfig returns the record written when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Token:               PlaceholderToken,
		Prefix:              DefaultPrefix,
		APIURL:              DefaultAPIURL,
		LogChannelID:        "",
		HealthCheckSchedule: DefaultHealthCheckSchedule,
		RateLimitPerMinute:  0,
	}
}
