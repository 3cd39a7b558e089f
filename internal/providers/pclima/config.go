package pclima

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL         = "https://pclima.inpe.br/"
	defaultDataPath        = "api/baixar/{formato}/{conjunto}/{modelo}/{experimento}/{periodo}/{cenario}/{variavel}/{frequenciaURL}/{frequencia}/{produto}/{localizacao}/{localizacao_pontos}/{varCDO}/{ano}"
	defaultTimeoutSeconds  = 60
	defaultUserAgent       = "pclima-go/0.1"
	defaultInsecureSkipTLS = false
	defaultStrictYearRange = false
)

type Config struct {
	BaseURL  string
	DataPath string
	// Token is used as is when set; otherwise it is resolved from the
	// environment and the rc file at RCPath.
	Token  string
	RCPath string

	Timeout   time.Duration
	UserAgent string
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// StrictYearRange turns a malformed year range into a ValidationError
	// instead of falling back to a single period.
	StrictYearRange bool

	// HTTPClient replaces the client built from Timeout and
	// InsecureSkipVerify.
	HTTPClient *http.Client
	Log        logrus.FieldLogger
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:            getenv("PCLIMA_BASE_URL", defaultBaseURL),
		DataPath:           getenv("PCLIMA_DATA_PATH", defaultDataPath),
		RCPath:             strings.TrimSpace(os.Getenv(envRCPath)),
		UserAgent:          getenv("PCLIMA_USER_AGENT", defaultUserAgent),
		InsecureSkipVerify: getenvBool("PCLIMA_INSECURE_SKIP_VERIFY", defaultInsecureSkipTLS),
		StrictYearRange:    getenvBool("PCLIMA_STRICT_YEAR_RANGE", defaultStrictYearRange),
	}
	cfg.Timeout = time.Duration(getenvInt("PCLIMA_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second

	return cfg, nil
}

func (cfg Config) withDefaults() Config {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.DataPath) == "" {
		cfg.DataPath = defaultDataPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return cfg
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
