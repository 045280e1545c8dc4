package config

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/auth"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/executor"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/openapi"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig         `toml:"server"`
	API       APIConfig            `toml:"api"`
	Tools     ToolsConfig          `toml:"tools"`
	Execution ExecutionConfig      `toml:"execution"`
	Auth      AuthConfig           `toml:"auth"`
	Derived   []openapi.Surface    `toml:"derived"`
	Logging   common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains MCP and HTTP server settings.
type ServerConfig struct {
	Name      string `toml:"name"`
	Port      int    `toml:"port"`
	Host      string `toml:"host"`
	Transport string `toml:"transport"`
}

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// APIConfig names the upstream API and where its description comes from.
// Registry, when set, is a previously exported registry JSON file and takes
// precedence over Spec. Strict rejects descriptions that fail validation.
type APIConfig struct {
	Name     string `toml:"name"`
	BaseURL  string `toml:"base_url"`
	Spec     string `toml:"spec"`
	Registry string `toml:"registry"`
	Strict   bool   `toml:"strict"`
}

// ToolsConfig controls tool generation.
type ToolsConfig struct {
	Layout            string   `toml:"layout"`
	Naming            string   `toml:"naming"`
	AuthParams        []string `toml:"auth_params"`
	ExtraAuthParams   []string `toml:"extra_auth_params"`
	Methods           []string `toml:"methods"`
	Tags              []string `toml:"tags"`
	PathPattern       string   `toml:"path_pattern"`
	Limit             int      `toml:"limit"`
	ValidateArguments bool     `toml:"validate_arguments"`
}

// ExecutionConfig contains the execution engine settings.
type ExecutionConfig struct {
	Timeout       Duration          `toml:"timeout"`
	MaxRetries    int               `toml:"max_retries"`
	RetryBackoff  Duration          `toml:"retry_backoff"`
	RetryOn       []int             `toml:"retry_on_status_codes"`
	RetryJitter   bool              `toml:"retry_jitter"`
	Deadline      Duration          `toml:"deadline"`
	Concurrency   int               `toml:"concurrency"`
	MaxResponseMB int               `toml:"max_response_mb"`
	ArrayStyle    string            `toml:"array_style"`
	Headers       map[string]string `toml:"headers"`
}

// AuthConfig is the default strategy plus per-call rules.
type AuthConfig struct {
	auth.Spec
	Rules []auth.RuleSpec `toml:"rules"`
}

// Duration is a time.Duration written as a string such as "30s" or "1.5s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies RESTMCP_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("RESTMCP_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RESTMCP_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if transport := os.Getenv("RESTMCP_SERVER_TRANSPORT"); transport != "" {
		config.Server.Transport = transport
	}
	if name := os.Getenv("RESTMCP_API_NAME"); name != "" {
		config.API.Name = name
	}
	if baseURL := os.Getenv("RESTMCP_API_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if spec := os.Getenv("RESTMCP_API_SPEC"); spec != "" {
		config.API.Spec = spec
	}
	if registry := os.Getenv("RESTMCP_API_REGISTRY"); registry != "" {
		config.API.Registry = registry
	}
	if retries := os.Getenv("RESTMCP_EXECUTION_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			config.Execution.MaxRetries = n
		}
	}
	if timeout := os.Getenv("RESTMCP_EXECUTION_TIMEOUT"); timeout != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(timeout)); err == nil {
			config.Execution.Timeout = d
		}
	}
	if typ := os.Getenv("RESTMCP_AUTH_TYPE"); typ != "" {
		config.Auth.Type = typ
	}
	if token := os.Getenv("RESTMCP_AUTH_TOKEN"); token != "" {
		config.Auth.Token = token
	}
	if value := os.Getenv("RESTMCP_AUTH_VALUE"); value != "" {
		config.Auth.Value = value
	}
	if level := os.Getenv("RESTMCP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host, transport, logLevel string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if transport != "" {
		config.Server.Transport = transport
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "disabled": true,
}

// Validate returns every configuration problem found. An empty result means
// the configuration can serve requests.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		issues = append(issues, fmt.Sprintf("server.transport %q must be stdio or http", c.Server.Transport))
	}

	if c.API.Spec == "" && c.API.Registry == "" {
		issues = append(issues, "api.spec or api.registry is required")
	}

	switch toolgen.Layout(c.Tools.Layout) {
	case toolgen.LayoutFlat, toolgen.LayoutGrouped:
	default:
		issues = append(issues, fmt.Sprintf("tools.layout %q must be flat or grouped", c.Tools.Layout))
	}
	switch toolgen.Naming(c.Tools.Naming) {
	case toolgen.NamingPath, toolgen.NamingEndpoint:
	default:
		issues = append(issues, fmt.Sprintf("tools.naming %q must be path or endpoint", c.Tools.Naming))
	}
	if c.Tools.PathPattern != "" {
		if _, err := regexp.Compile(c.Tools.PathPattern); err != nil {
			issues = append(issues, fmt.Sprintf("tools.path_pattern: %v", err))
		}
	}
	if c.Tools.Limit < 0 {
		issues = append(issues, "tools.limit must be >= 0")
	}

	if err := c.EngineConfig(nil).Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			issues = append(issues, "execution."+line)
		}
	}
	if c.Execution.Concurrency < 0 {
		issues = append(issues, "execution.concurrency must be >= 0")
	}

	if _, err := c.Resolver(); err != nil {
		issues = append(issues, "auth: "+err.Error())
	}
	for i, s := range c.Derived {
		if err := s.Validate(); err != nil {
			issues = append(issues, fmt.Sprintf("derived[%d]: %v", i, strings.ReplaceAll(err.Error(), "\n", "; ")))
		}
	}

	if !logLevels[strings.ToLower(c.Logging.Level)] {
		issues = append(issues, fmt.Sprintf("logging.level %q is not a known level", c.Logging.Level))
	}
	return issues
}

// APIName returns the tool name prefix, falling back to the server name.
func (c *Config) APIName() string {
	if c.API.Name != "" {
		return c.API.Name
	}
	return c.Server.Name
}

// Policy returns the tool generation policy. detected are credential
// parameter names found in the API's security schemes.
func (c *Config) Policy(detected []string) toolgen.Policy {
	p := toolgen.Policy{
		APIName:            c.APIName(),
		Layout:             toolgen.Layout(c.Tools.Layout),
		Naming:             toolgen.Naming(c.Tools.Naming),
		DetectedAuthParams: append(append([]string(nil), detected...), c.Tools.ExtraAuthParams...),
		Methods:            c.Tools.Methods,
		Tags:               c.Tools.Tags,
		PathPattern:        c.Tools.PathPattern,
		Limit:              c.Tools.Limit,
	}
	if c.Tools.AuthParams != nil {
		p.AuthParams = c.Tools.AuthParams
	}
	return p
}

// EngineConfig returns the execution engine configuration. authParams are the
// names stripped from requests; nil keeps the defaults.
func (c *Config) EngineConfig(authParams toolgen.ParamSet) executor.Config {
	e := c.Execution
	cfg := executor.Config{
		BaseURL:          c.API.BaseURL,
		Timeout:          e.Timeout.Std(),
		MaxRetries:       e.MaxRetries,
		RetryBackoff:     e.RetryBackoff.Std(),
		RetryOn:          e.RetryOn,
		Jitter:           e.RetryJitter,
		Deadline:         e.Deadline.Std(),
		Concurrency:      e.Concurrency,
		MaxResponseBytes: int64(e.MaxResponseMB) << 20,
		ArrayStyle:       request.ArrayStyle(e.ArrayStyle),
		AuthParams:       authParams,
	}
	if len(e.Headers) > 0 {
		cfg.DefaultHeaders = make(http.Header, len(e.Headers))
		for k, v := range e.Headers {
			cfg.DefaultHeaders.Set(k, v)
		}
	}
	return cfg
}

// Resolver builds the auth resolver from the [auth] table.
func (c *Config) Resolver() (auth.Resolver, error) {
	return auth.NewResolver(c.Auth.Spec, c.Auth.Rules)
}
