// Package redaction masks credentials before they reach a log line.
// The bot token is the only real secret linkbot handles, but control-plane
// responses and discordgo errors can echo headers, so a few generic token
// shapes are covered as well.
package redaction

import (
	"regexp"
	"strings"
	"sync"
)

// Config holds redaction configuration.
type Config struct {
	// Enabled controls whether redaction is active.
	Enabled bool `json:"enabled"`

	// Secrets are literal values that must never be logged, such as the bot token.
	Secrets []string `json:"-"`

	// Replacement is the string used to replace sensitive data.
	Replacement string `json:"replacement"`
}

// DefaultConfig returns the default redaction configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Replacement: "[REDACTED]",
	}
}

// Redactor masks secrets in strings and log fields.
type Redactor struct {
	config   Config
	patterns []*regexp.Regexp
	mu       sync.RWMutex
}

var builtinPatterns = []*regexp.Regexp{
	// Discord bot tokens: base64 user id, timestamp, HMAC.
	regexp.MustCompile(`[MNO][A-Za-z\d_-]{23,27}\.[A-Za-z\d_-]{6}\.[A-Za-z\d_-]{27,40}`),
	// Authorization header values.
	regexp.MustCompile(`(?i)\b(?:bot|bearer)\s+([A-Za-z0-9_\-\.]{20,})`),
	// "token": "..." inside JSON payloads.
	regexp.MustCompile(`"(?:token|api_key|secret|password)"\s*:\s*"([^"]+)"`),
}

// NewRedactor creates a Redactor with the given configuration.
func NewRedactor(config Config) *Redactor {
	if config.Replacement == "" {
		config.Replacement = DefaultConfig().Replacement
	}
	return &Redactor{
		config:   config,
		patterns: builtinPatterns,
	}
}

// AddSecret registers a literal value to be masked wherever it appears.
func (r *Redactor) AddSecret(secret string) {
	if strings.TrimSpace(secret) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Secrets = append(r.config.Secrets, secret)
}

// Redact applies every rule to the input string.
func (r *Redactor) Redact(input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.config.Enabled || input == "" {
		return input
	}

	result := input
	for _, secret := range r.config.Secrets {
		result = strings.ReplaceAll(result, secret, r.config.Replacement)
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, func(match string) string {
			sub := re.FindStringSubmatch(match)
			if len(sub) > 1 && sub[1] != "" {
				return strings.Replace(match, sub[1], r.config.Replacement, 1)
			}
			return r.config.Replacement
		})
	}

	return result
}

// RedactFields redacts sensitive values in a log field map.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return fields
	}

	r.mu.RLock()
	enabled := r.config.Enabled
	replacement := r.config.Replacement
	r.mu.RUnlock()

	if !enabled {
		return fields
	}

	result := make(map[string]any, len(fields))
	for k, v := range fields {
		if isSensitiveKey(strings.ToLower(k)) {
			result[k] = replacement
			continue
		}
		switch val := v.(type) {
		case string:
			result[k] = r.Redact(val)
		case map[string]any:
			result[k] = r.RedactFields(val)
		default:
			result[k] = v
		}
	}
	return result
}

func isSensitiveKey(key string) bool {
	for _, sk := range []string{"token", "secret", "password", "authorization"} {
		if strings.Contains(key, sk) {
			return true
		}
	}
	return false
}

// SetEnabled enables or disables redaction at runtime.
func (r *Redactor) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Enabled = enabled
}

var (
	globalMu       sync.RWMutex
	globalRedactor = NewRedactor(DefaultConfig())
)

func global() *Redactor {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRedactor
}

// Redact applies redaction using the global redactor.
func Redact(input string) string {
	return global().Redact(input)
}

// RedactFields redacts fields using the global redactor.
func RedactFields(fields map[string]any) map[string]any {
	return global().RedactFields(fields)
}

// AddSecret registers a literal secret with the global redactor.
func AddSecret(secret string) {
	global().AddSecret(secret)
}

// SetGlobalConfig replaces the global redactor.
func SetGlobalConfig(config Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalRedactor = NewRedactor(config)
}
