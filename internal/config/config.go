// Package config holds the command-line and environment configuration of the
// captcha service.
//
// Every flag has a CAPTCHA_* environment variable that supplies its default,
// so a deployment can be configured entirely through the environment (or a
// .env file) and still be overridden on the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/joho/godotenv"
)

// Defaults used when neither a flag nor an environment variable is set.
const (
	DefaultAddress   = "0.0.0.0:8000"
	DefaultOCRPath   = "model/common.onnx"
	DefaultDetPath   = "model/common_det.onnx"
	DefaultRateLimit = 0
)

// Config holds service configuration
type Config struct {
	// Address is the HTTP listen address: "/path" for a unix socket, a bare
	// port number, or host:port.
	Address string

	// Model files. The OCR charset is read from OCRPath with a .json extension.
	OCRPath string
	DetPath string

	// Features disabled at start-up. They can be enabled later through the
	// toggle operation.
	DisableOCR   bool
	DisableDet   bool
	DisableSlide bool

	// OCRCharsetRange is the default restriction for OCR calls that do not
	// supply one. Empty means unrestricted.
	OCRCharsetRange string

	// HTTP serves the JSON API on Address instead of MCP over stdio.
	HTTP bool

	// ONNXRuntime is the path of the ONNX Runtime shared library. Empty uses
	// the platform default.
	ONNXRuntime string

	// RateLimit is the number of HTTP requests allowed per client IP per
	// minute. Zero disables rate limiting.
	RateLimit int

	// LogLevel is "debug" for verbose logging.
	LogLevel string

	// Version asks for version information only.
	Version bool
}

// LoadEnv loads environment variables from .env files. Variables already set
// in the environment win. A missing file is reported but leaves the
// environment untouched.
func LoadEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Parse builds a Config from command-line arguments (args[0] is the program
// name), using CAPTCHA_* environment variables as defaults. On a parse error
// the returned error carries the usage text.
func Parse(args []string) (*Config, error) {
	parser := argparse.NewParser("captcha-mcp", "Captcha recognition service (MCP over stdio or HTTP)")
	address := parser.String("a", "address", &argparse.Options{Help: "Listen address: /path for a unix socket, a port number, or host:port", Default: getEnvOrDefault("CAPTCHA_ADDRESS", DefaultAddress)})
	ocrPath := parser.String("", "ocr-path", &argparse.Options{Help: "OCR model file (charset is read from the same path with a .json extension)", Default: getEnvOrDefault("CAPTCHA_OCR_PATH", DefaultOCRPath)})
	detPath := parser.String("", "det-path", &argparse.Options{Help: "Detection model file", Default: getEnvOrDefault("CAPTCHA_DET_PATH", DefaultDetPath)})
	disableOCR := parser.Flag("", "disable-ocr", &argparse.Options{Help: "Start with OCR disabled", Default: getEnvAsBoolOrDefault("CAPTCHA_DISABLE_OCR", false)})
	disableDet := parser.Flag("", "disable-det", &argparse.Options{Help: "Start with detection disabled", Default: getEnvAsBoolOrDefault("CAPTCHA_DISABLE_DET", false)})
	disableSlide := parser.Flag("", "disable-slide", &argparse.Options{Help: "Start with slide matching disabled", Default: getEnvAsBoolOrDefault("CAPTCHA_DISABLE_SLIDE", false)})
	charsetRange := parser.String("", "ocr-charset-range", &argparse.Options{Help: "Default OCR charset range: a preset 0-7 or a string of allowed characters", Default: getEnvOrDefault("CAPTCHA_OCR_CHARSET_RANGE", "")})
	httpMode := parser.Flag("", "http", &argparse.Options{Help: "Serve the HTTP API instead of MCP over stdio", Default: getEnvAsBoolOrDefault("CAPTCHA_HTTP", false)})
	onnxRuntime := parser.String("", "onnxruntime", &argparse.Options{Help: "Path of the ONNX Runtime shared library", Default: getEnvOrDefault("CAPTCHA_ONNXRUNTIME", "")})
	rateLimit := parser.Int("", "rate-limit", &argparse.Options{Help: "HTTP requests per minute per client IP (0 disables)", Required: false, Default: getEnvAsIntOrDefault("CAPTCHA_RATE_LIMIT", DefaultRateLimit)})
	version := parser.Flag("v", "version", &argparse.Options{Help: "Print version information", Default: false})

	if err := parser.Parse(args); err != nil {
		return nil, errors.New(parser.Usage(err))
	}

	cfg := &Config{
		Address:         *address,
		OCRPath:         *ocrPath,
		DetPath:         *detPath,
		DisableOCR:      *disableOCR,
		DisableDet:      *disableDet,
		DisableSlide:    *disableSlide,
		OCRCharsetRange: *charsetRange,
		HTTP:            *httpMode,
		ONNXRuntime:     *onnxRuntime,
		RateLimit:       *rateLimit,
		LogLevel:        getEnvOrDefault("CAPTCHA_LOG_LEVEL", "info"),
		Version:         *version,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be >= 0, got %d", c.RateLimit)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// ParseAddress splits a listen address into a network and an address for
// net.Listen. Addresses starting with "/" are unix sockets, a bare port
// number listens on every interface, anything else is a TCP host:port.
func ParseAddress(addr string) (network, address string) {
	if strings.HasPrefix(addr, "/") {
		return "unix", addr
	}
	if _, err := strconv.ParseUint(addr, 10, 16); err == nil {
		return "tcp", "0.0.0.0:" + addr
	}
	return "tcp", addr
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
