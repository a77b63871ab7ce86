package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gridpool/pickem-league/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	PprofEnabled            bool
	PprofAddr               string

	PoolPayBaseURL             string
	PoolPayAPIKey              string
	PoolPayTimeout             time.Duration
	PoolPayTokenCacheTTL       time.Duration
	PoolPayCircuitEnabled      bool
	PoolPayCircuitFailureCount int
	PoolPayCircuitOpenTimeout  time.Duration
	PoolPayCircuitHalfOpenReq  int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	InternalJobToken string

	ResolveChunkSize  int
	ResolveChunkPause time.Duration

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	poolPayTimeout, err := time.ParseDuration(getEnv("POOLPAY_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse POOLPAY_TIMEOUT: %w", err)
	}
	poolPayTokenCacheTTL, err := time.ParseDuration(getEnv("POOLPAY_TOKEN_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse POOLPAY_TOKEN_CACHE_TTL: %w", err)
	}
	poolPayCircuitEnabled, err := strconv.ParseBool(getEnv("POOLPAY_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse POOLPAY_CIRCUIT_ENABLED: %w", err)
	}
	poolPayCircuitFailureCount, err := getEnvAsInt("POOLPAY_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse POOLPAY_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if poolPayCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("POOLPAY_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	poolPayCircuitOpenTimeout, err := time.ParseDuration(getEnv("POOLPAY_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse POOLPAY_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if poolPayCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("POOLPAY_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	poolPayCircuitHalfOpenReq, err := getEnvAsInt("POOLPAY_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse POOLPAY_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if poolPayCircuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("POOLPAY_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	resolveChunkSize, err := getEnvAsInt("RESOLVE_CHUNK_SIZE", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVE_CHUNK_SIZE: %w", err)
	}
	if resolveChunkSize < 1 {
		return Config{}, fmt.Errorf("RESOLVE_CHUNK_SIZE must be >= 1")
	}
	resolveChunkPause, err := time.ParseDuration(getEnv("RESOLVE_CHUNK_PAUSE", "25ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVE_CHUNK_PAUSE: %w", err)
	}
	if resolveChunkPause < 0 {
		return Config{}, fmt.Errorf("RESOLVE_CHUNK_PAUSE must be >= 0")
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             getEnv("APP_SERVICE_NAME", "pickem-league-api"),
		ServiceVersion:          getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                   getEnv("DB_URL", ""),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		CacheEnabled:            cacheEnabled,
		CacheTTL:                cacheTTL,
		CORSAllowedOrigins:      splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:             readTimeout,
		WriteTimeout:            writeTimeout,
		PprofEnabled:            pprofEnabled,
		PprofAddr:               pprofAddr,

		PoolPayBaseURL:             getEnv("POOLPAY_BASE_URL", "http://localhost:8081"),
		PoolPayAPIKey:              strings.TrimSpace(getEnv("POOLPAY_API_KEY", "")),
		PoolPayTimeout:             poolPayTimeout,
		PoolPayTokenCacheTTL:       poolPayTokenCacheTTL,
		PoolPayCircuitEnabled:      poolPayCircuitEnabled,
		PoolPayCircuitFailureCount: poolPayCircuitFailureCount,
		PoolPayCircuitOpenTimeout:  poolPayCircuitOpenTimeout,
		PoolPayCircuitHalfOpenReq:  poolPayCircuitHalfOpenReq,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		ResolveChunkSize:  resolveChunkSize,
		ResolveChunkPause: resolveChunkPause,

		LogLevel: parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
