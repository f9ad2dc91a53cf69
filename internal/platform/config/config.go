package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultUserCookie    = "pf_user_token"
	defaultPartnerCookie = "pf_partner_token"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firestore FirestoreConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Events    EventsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// AuthConfig controls session verification at the boundary. The JWT secret
// must match the key the external auth service signs session cookies with.
type AuthConfig struct {
	JWTSecret         string
	UserCookieName    string
	PartnerCookieName string
	FirebaseProjectID string
	CredentialsFile   string
}

// StorageConfig lists object storage parameters for item videos.
type StorageConfig struct {
	VideosBucket  string
	PublicBaseURL string
}

// EventsConfig controls order lifecycle event publishing.
type EventsConfig struct {
	ProjectID  string
	OrderTopic string
}

// ValidationError is returned when required configuration fields are missing.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loadOptions)

type loadOptions struct {
	envFile string
	lookup  func(string) (string, bool)
}

// WithEnvFile overrides the env file consulted before process environment.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		if strings.TrimSpace(path) != "" {
			o.envFile = path
		}
	}
}

// WithLookup overrides the environment lookup, used by tests.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *loadOptions) {
		if lookup != nil {
			o.lookup = lookup
		}
	}
}

// Load reads configuration from the env file and process environment, applies
// defaults, and validates required fields.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{
		envFile: defaultEnvFile,
		lookup:  os.LookupEnv,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	fileValues := readEnvFile(options.envFile)
	get := func(key string) string {
		if value, ok := options.lookup(key); ok {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileValues[key])
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringOr(get("API_SERVER_PORT"), defaultPort),
			ReadTimeout:  durationOr(get("API_SERVER_READ_TIMEOUT"), defaultReadTimeout),
			WriteTimeout: durationOr(get("API_SERVER_WRITE_TIMEOUT"), defaultWriteTimeout),
			IdleTimeout:  durationOr(get("API_SERVER_IDLE_TIMEOUT"), defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    get("API_FIRESTORE_PROJECT_ID"),
			EmulatorHost: get("API_FIRESTORE_EMULATOR_HOST"),
		},
		Auth: AuthConfig{
			JWTSecret:         get("API_AUTH_JWT_SECRET"),
			UserCookieName:    stringOr(get("API_AUTH_USER_COOKIE"), defaultUserCookie),
			PartnerCookieName: stringOr(get("API_AUTH_PARTNER_COOKIE"), defaultPartnerCookie),
			FirebaseProjectID: get("API_AUTH_FIREBASE_PROJECT_ID"),
			CredentialsFile:   get("API_AUTH_CREDENTIALS_FILE"),
		},
		Storage: StorageConfig{
			VideosBucket:  get("API_STORAGE_VIDEOS_BUCKET"),
			PublicBaseURL: get("API_STORAGE_PUBLIC_BASE_URL"),
		},
		Events: EventsConfig{
			ProjectID:  stringOr(get("API_EVENTS_PROJECT_ID"), get("API_FIRESTORE_PROJECT_ID")),
			OrderTopic: get("API_EVENTS_ORDER_TOPIC"),
		},
	}

	var missing []string
	if cfg.Firestore.ProjectID == "" {
		missing = append(missing, "Firestore.ProjectID")
	}
	if cfg.Auth.JWTSecret == "" {
		missing = append(missing, "Auth.JWTSecret")
	}
	if len(missing) > 0 {
		return Config{}, &ValidationError{fields: missing}
	}

	return cfg, nil
}

func readEnvFile(path string) map[string]string {
	values := make(map[string]string)
	if strings.TrimSpace(path) == "" {
		return values
	}
	file, err := os.Open(path)
	if err != nil {
		return values
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if key == "" {
			continue
		}
		values[key] = value
	}
	return values
}

func stringOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
