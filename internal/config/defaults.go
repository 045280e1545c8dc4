package config

import (
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/executor"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	engine := executor.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Name:      "restmcp",
			Port:      4241,
			Host:      "localhost",
			Transport: TransportStdio,
		},
		Tools: ToolsConfig{
			Layout: string(toolgen.LayoutFlat),
			Naming: string(toolgen.NamingPath),
		},
		Execution: ExecutionConfig{
			Timeout:       Duration(engine.Timeout),
			MaxRetries:    engine.MaxRetries,
			RetryBackoff:  Duration(engine.RetryBackoff),
			RetryOn:       engine.RetryOn,
			Concurrency:   engine.Concurrency,
			MaxResponseMB: int(engine.MaxResponseBytes >> 20),
			ArrayStyle:    string(engine.ArrayStyle),
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}

