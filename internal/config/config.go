// Package config resolves kouka command-line settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables, then flags given explicitly on the command line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"

	"github.com/arloliu/kouka/format"
	"github.com/arloliu/kouka/internal/exit"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "qwen2.5-coder:32b"

	// DefaultHost is where a local Ollama server listens.
	DefaultHost = "http://localhost:11434"

	// DefaultTimeout bounds a whole generation.
	DefaultTimeout = 5 * time.Minute

	// DefaultKey is the field extracted in -extract mode.
	DefaultKey = "response"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

var (
	ErrNoPrompt        = errors.New("no prompt provided")
	ErrEmptyKey        = errors.New("extract key cannot be empty")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrInvalidLogFmt   = errors.New("log format must be text or json")
)

// Config represents the complete configuration for the kouka tool.
type Config struct {
	// Generation
	Host    string        `yaml:"host"    env:"OLLAMA_HOST"`
	Model   string        `yaml:"model"   env:"KOUKA_MODEL"`
	System  string        `yaml:"system"  env:"KOUKA_SYSTEM"`
	Options string        `yaml:"options" env:"KOUKA_OPTIONS"`
	Prompt  string        `yaml:"-"`
	Timeout time.Duration `yaml:"timeout" env:"KOUKA_TIMEOUT"`

	// HTTP client configuration
	Insecure       bool    `yaml:"insecure"        env:"KOUKA_INSECURE"`
	CACertFile     string  `yaml:"cacert"          env:"KOUKA_CACERT"`
	RateLimit      float64 `yaml:"rate_limit"      env:"KOUKA_RATE_LIMIT"`
	AcceptEncoding string  `yaml:"accept_encoding" env:"KOUKA_ACCEPT_ENCODING"`

	// Stream handling
	DecodeUnicode  bool `yaml:"decode_unicode"   env:"KOUKA_DECODE_UNICODE"`
	ReadBufferSize int  `yaml:"read_buffer_size" env:"KOUKA_READ_BUFFER_SIZE"`
	MaxBufferSize  int  `yaml:"max_buffer_size"  env:"KOUKA_MAX_BUFFER_SIZE"`

	// Extract mode
	Extract  bool                     `yaml:"-"`
	Key      string                   `yaml:"key"      env:"KOUKA_KEY"`
	Encoding string                   `yaml:"encoding" env:"KOUKA_ENCODING"`
	Inputs   []string                 `yaml:"-"`
	Codecs   []format.ContentEncoding `yaml:"-"`

	// Output
	LogLevel  string `yaml:"log_level"  env:"KOUKA_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"KOUKA_LOG_FORMAT"`
	NoColor   bool   `yaml:"no_color"   env:"KOUKA_NO_COLOR"`
	Stats     bool   `yaml:"stats"      env:"KOUKA_STATS"`

	ConfigFile string `yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Host:      DefaultHost,
		Model:     DefaultModel,
		Timeout:   DefaultTimeout,
		Key:       DefaultKey,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Level returns the parsed log level.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}

	return level
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w, got: %s", ErrInvalidLogFmt, c.LogFormat)
	}

	if c.Extract {
		if c.Key == "" {
			return ErrEmptyKey
		}
		codecs, err := format.ParseContentEncodingHeader(c.Encoding)
		if err != nil {
			return err
		}
		c.Codecs = codecs

		return nil
	}

	if strings.TrimSpace(c.Prompt) == "" {
		return ErrNoPrompt
	}

	if c.CACertFile != "" {
		if _, err := os.Stat(c.CACertFile); err != nil {
			return fmt.Errorf("CA certificate file %s not found: %w", c.CACertFile, err)
		}
	}

	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	return parse(args, env.ToMap(os.Environ()))
}

func parse(args []string, environment map[string]string) (*Config, *exit.Result) {
	name := "kouka"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	// Suppress the default usage and error output since we handle it ourselves
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	defaults := Defaults()
	var (
		configFile     = fs.String("config", "", "Path to a YAML configuration file")
		host           = fs.String("host", defaults.Host, "Ollama server URL")
		model          = fs.String("model", defaults.Model, "Model name")
		system         = fs.String("system", "", "System prompt")
		options        = fs.String("options", "", "Model options as a JSON object")
		timeout        = fs.Duration("timeout", defaults.Timeout, "Timeout for the whole generation")
		insecure       = fs.Bool("insecure", false, "Skip TLS certificate verification")
		caCertFile     = fs.String("cacert", "", "Path to CA certificate file for TLS verification")
		rateLimit      = fs.Float64("rate-limit", 0, "Rate limit in requests per second (0 for unlimited)")
		acceptEncoding = fs.String("accept-encoding", "", "Accept-Encoding header to send")
		decodeUnicode  = fs.Bool("decode-unicode", false, "Decode \\uXXXX escapes instead of printing '?'")
		readBuffer     = fs.Int("read-buffer", 0, "Receive buffer size in bytes")
		maxBuffer      = fs.Int("max-buffer", 0, "Maximum stream buffer size in bytes")
		extractMode    = fs.Bool("extract", false, "Extract a field from concatenated JSON in files or stdin")
		key            = fs.String("key", defaults.Key, "Field to extract in -extract mode")
		encoding       = fs.String("encoding", "", "Content encoding of -extract input, e.g. gzip or zstd")
		logLevel       = fs.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
		logFormat      = fs.String("log-format", defaults.LogFormat, "Log format (text or json)")
		noColor        = fs.Bool("no-color", false, "Disable colored output")
		stats          = fs.Bool("stats", false, "Print a summary to stderr when done")
		help           = fs.Bool("h", false, "Show this help message")
		version        = fs.Bool("v", false, "Show version information")
	)
	fs.BoolVar(help, "help", false, "Show this help message")
	fs.BoolVar(version, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage())
		}

		return nil, exit.Usage(fmt.Sprintf("Error: failed to parse arguments: %v\n\n%s", err, Usage()))
	}
	if *help {
		return nil, exit.Success(Usage())
	}
	if *version {
		return nil, exit.Success(fmt.Sprintf("kouka %s\n", Version))
	}

	config := defaults

	path := *configFile
	if path == "" {
		path = environment["KOUKA_CONFIG"]
	}
	if path != "" {
		if err := loadFile(path, &config); err != nil {
			return nil, exit.Errorf("Error: %v\n", err)
		}
		config.ConfigFile = path
	}

	if err := env.ParseWithOptions(&config, env.Options{
		Environment: environment,
	}); err != nil {
		return nil, exit.Errorf("Error: parse env: %v\n", err)
	}

	// Flags given on the command line take precedence over everything else.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			config.Host = *host
		case "model":
			config.Model = *model
		case "system":
			config.System = *system
		case "options":
			config.Options = *options
		case "timeout":
			config.Timeout = *timeout
		case "insecure":
			config.Insecure = *insecure
		case "cacert":
			config.CACertFile = *caCertFile
		case "rate-limit":
			config.RateLimit = *rateLimit
		case "accept-encoding":
			config.AcceptEncoding = *acceptEncoding
		case "decode-unicode":
			config.DecodeUnicode = *decodeUnicode
		case "read-buffer":
			config.ReadBufferSize = *readBuffer
		case "max-buffer":
			config.MaxBufferSize = *maxBuffer
		case "key":
			config.Key = *key
		case "encoding":
			config.Encoding = *encoding
		case "log-level":
			config.LogLevel = *logLevel
		case "log-format":
			config.LogFormat = *logFormat
		case "no-color":
			config.NoColor = *noColor
		case "stats":
			config.Stats = *stats
		}
	})

	config.Extract = *extractMode
	if config.Extract {
		config.Inputs = fs.Args()
		if len(config.Inputs) == 0 {
			config.Inputs = []string{"-"}
		}
	} else {
		config.Prompt = strings.Join(fs.Args(), " ")
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Usage(fmt.Sprintf("Error: %v\n\n%s", err, Usage()))
	}

	return &config, nil
}

// loadFile overlays the YAML file at path onto config. Keys absent from the
// file keep their current values.
func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `kouka - stream text from an Ollama server

Usage: kouka [options] <prompt>
       kouka -extract [-key NAME] [-encoding ENC] [file ...]

Options:
  -config FILE            YAML configuration file (env KOUKA_CONFIG)
  -host URL               Ollama server URL (default: http://localhost:11434, env OLLAMA_HOST)
  -model NAME             Model name (default: qwen2.5-coder:32b)
  -system TEXT            System prompt
  -options JSON           Model options, e.g. '{"temperature":0.2}'
  -timeout DURATION       Timeout for the whole generation (default: 5m)
  -insecure               Skip TLS certificate verification
  -cacert FILE            Path to CA certificate file for TLS verification
  -rate-limit N           Rate limit in requests per second (0 for unlimited)
  -accept-encoding ENC    Accept-Encoding header to send, e.g. "zstd, gzip"
  -decode-unicode         Decode \uXXXX escapes instead of printing '?'
  -read-buffer BYTES      Receive buffer size
  -max-buffer BYTES       Maximum stream buffer size
  -extract                Extract a field from concatenated JSON objects
  -key NAME               Field to extract (default: response)
  -encoding ENC           Content encoding of the input, e.g. gzip or "gzip, zstd"
  -log-level LEVEL        debug, info, warn or error (default: warn)
  -log-format FORMAT      text or json (default: text)
  -no-color               Disable colored output
  -stats                  Print a summary to stderr when done
  -h, -help               Show this help message
  -v, -version            Show version information

Environment variables use the KOUKA_ prefix, e.g. KOUKA_MODEL.

Examples:
  kouka "Why is the sky blue?"
  kouka -model llama3 -options '{"temperature":0}' "Write a haiku"
  kouka -extract -key response < capture.ndjson
  kouka -extract -encoding zstd capture.ndjson.zst
`
}
