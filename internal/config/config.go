package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/idcard-scanner-go/internal/normalizer"
	"github.com/anime-shed/idcard-scanner-go/internal/recognition"
	"github.com/anime-shed/idcard-scanner-go/internal/region"

	"github.com/joho/godotenv"
)

// Photo sink kinds
const (
	PhotoSinkLocal = "local"
	PhotoSinkAzure = "azure"
	PhotoSinkNone  = "none"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	FetchTimeout       time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	AllowedHosts       []string

	// Recognition
	OCRLanguage    string
	TessdataPrefix string

	// Normalization
	NLMTemplateWindow int
	NLMSearchWindow   int
	NLMStrength       float64
	DilateKernel      int

	// Region selection
	FaceCascadePath    string
	DetectScaleFactor  float64
	DetectMinNeighbors int
	DetectMinSize      int
	DetectPadding      int

	// Photo persistence
	PhotoSink           string
	OutputDir           string
	AzureAccount        string
	AzureKey            string
	AzurePhotoContainer string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// NormalizerOptions maps the NLM_* and DILATE_* keys onto normalizer options
func (c *Config) NormalizerOptions() normalizer.Options {
	return normalizer.DefaultOptions().
		WithDenoise(c.NLMTemplateWindow, c.NLMSearchWindow, c.NLMStrength).
		WithDilateKernel(c.DilateKernel)
}

// RegionOptions maps the DETECT_* keys onto region options
func (c *Config) RegionOptions() region.Options {
	return region.Options{
		Params: region.DetectParams{
			ScaleFactor:  c.DetectScaleFactor,
			MinNeighbors: c.DetectMinNeighbors,
			MinSize:      image.Pt(c.DetectMinSize, c.DetectMinSize),
		},
		Padding: c.DetectPadding,
	}
}

// LoadFromEnv reads the configuration from the environment. Values from the
// file named by ENV_FILE (default .env) fill keys that are not already set;
// a missing file is not an error.
func LoadFromEnv() (*Config, error) {
	envFile := getEnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	defaults := normalizer.DefaultOptions()
	detect := region.DefaultDetectParams()

	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		FetchTimeout:       parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 16*1024*1024), // 16MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		AllowedHosts:       parseListOrDefault("ALLOWED_HOSTS", nil),

		OCRLanguage:    getEnvOrDefault("OCR_LANGUAGE", recognition.DefaultLanguage),
		TessdataPrefix: os.Getenv("TESSDATA_PREFIX"),

		NLMTemplateWindow: int(parseIntOrDefault("NLM_TEMPLATE_WINDOW", int64(defaults.TemplateWindow))),
		NLMSearchWindow:   int(parseIntOrDefault("NLM_SEARCH_WINDOW", int64(defaults.SearchWindow))),
		NLMStrength:       parseFloatOrDefault("NLM_STRENGTH", defaults.Strength),
		DilateKernel:      int(parseIntOrDefault("DILATE_KERNEL", int64(defaults.DilateKernel))),

		FaceCascadePath:    getEnvOrDefault("FACE_CASCADE_PATH", "haarcascade_frontalface_default.xml"),
		DetectScaleFactor:  parseFloatOrDefault("DETECT_SCALE_FACTOR", detect.ScaleFactor),
		DetectMinNeighbors: int(parseIntOrDefault("DETECT_MIN_NEIGHBORS", int64(detect.MinNeighbors))),
		DetectMinSize:      int(parseIntOrDefault("DETECT_MIN_SIZE", int64(detect.MinSize.X))),
		DetectPadding:      int(parseIntOrDefault("DETECT_PADDING", region.DefaultPadding)),

		PhotoSink:           strings.ToLower(getEnvOrDefault("PHOTO_SINK", PhotoSinkLocal)),
		OutputDir:           getEnvOrDefault("OUTPUT_DIR", "extracted_photos"),
		AzureAccount:        os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:            os.Getenv("AZURE_STORAGE_KEY"),
		AzurePhotoContainer: getEnvOrDefault("AZURE_PHOTO_CONTAINER", "photos"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.FetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.FetchTimeout, c.AnalysisTimeout)
	}
	if err := c.NormalizerOptions().Validate(); err != nil {
		return fmt.Errorf("invalid normalizer settings: %w", err)
	}
	if c.DetectScaleFactor <= 1 {
		return fmt.Errorf("DETECT_SCALE_FACTOR must be > 1 (got %g)", c.DetectScaleFactor)
	}
	if c.DetectMinNeighbors < 0 || c.DetectMinSize < 0 || c.DetectPadding < 0 {
		return fmt.Errorf("detection settings must be >= 0 (got neighbors=%d, min_size=%d, padding=%d)",
			c.DetectMinNeighbors, c.DetectMinSize, c.DetectPadding)
	}
	switch c.PhotoSink {
	case PhotoSinkLocal:
		if strings.TrimSpace(c.OutputDir) == "" {
			return fmt.Errorf("OUTPUT_DIR is required for the local photo sink")
		}
	case PhotoSinkAzure:
		if c.AzureAccount == "" || c.AzureKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required for the azure photo sink")
		}
	case PhotoSinkNone:
	default:
		return fmt.Errorf("invalid PHOTO_SINK: %q (want local, azure or none)", c.PhotoSink)
	}
	return nil
}

// AzureEnabled reports whether blob credentials are configured
func (c *Config) AzureEnabled() bool {
	return c.AzureAccount != "" && c.AzureKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
