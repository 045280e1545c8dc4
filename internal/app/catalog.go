package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/openapi"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// ErrNoBaseURL is returned when neither the configuration nor the API
// description names the upstream base URL.
var ErrNoBaseURL = errors.New("no upstream base URL: set api.base_url")

// Catalog is the tool registry built for one upstream API.
type Catalog struct {
	Registry *registry.Registry
	// API is nil when the registry was imported from JSON.
	API        *openapi.API
	AuthParams toolgen.ParamSet
	BaseURL    string
}

// LoadCatalog builds the registry named by cfg: an exported registry file
// when api.registry is set, otherwise tools generated from api.spec.
func LoadCatalog(ctx context.Context, cfg *config.Config, logger *common.Logger) (*Catalog, error) {
	if cfg.API.Registry != "" {
		return importCatalog(cfg, logger)
	}
	return generateCatalog(ctx, cfg, logger)
}

func importCatalog(cfg *config.Config, logger *common.Logger) (*Catalog, error) {
	reg, err := registry.ImportFile(cfg.API.Registry)
	if err != nil {
		return nil, err
	}
	// The recorded names take the place of the ones detected from the API
	// description at generation time.
	gen, err := toolgen.NewGenerator(cfg.Policy(reg.AuthParams()), logger)
	if err != nil {
		return nil, fmt.Errorf("invalid tools configuration: %w", err)
	}

	logger.Info().
		Str("registry", cfg.API.Registry).
		Str("name", reg.Name()).
		Int("tools", reg.Count()).
		Int("auth_params", len(reg.AuthParams())).
		Msg("Registry imported")

	return &Catalog{
		Registry:   reg,
		AuthParams: gen.AuthParams(),
		BaseURL:    cfg.API.BaseURL,
	}, nil
}

func generateCatalog(ctx context.Context, cfg *config.Config, logger *common.Logger) (*Catalog, error) {
	loader := openapi.NewLoader(logger)
	loader.Strict = cfg.API.Strict

	api, err := loader.LoadAPI(ctx, cfg.API.Spec)
	if err != nil {
		return nil, err
	}

	endpoints, err := openapi.DeriveAll(api.Endpoints, cfg.Derived)
	if err != nil {
		return nil, fmt.Errorf("failed to derive endpoints: %w", err)
	}

	gen, err := toolgen.NewGenerator(cfg.Policy(api.AuthParams), logger)
	if err != nil {
		return nil, fmt.Errorf("invalid tools configuration: %w", err)
	}

	reg := registry.New(cfg.APIName())
	reg.SetAuthParams(gen.AuthParams().Names())
	if err := reg.AddEndpoints(endpoints); err != nil {
		return nil, err
	}
	tools, err := gen.GenerateAll(endpoints, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tools: %w", err)
	}

	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = api.BaseURL
	}

	logger.Info().
		Str("spec", cfg.API.Spec).
		Str("api", api.Title).
		Int("endpoints", len(endpoints)).
		Int("tools", len(tools)).
		Msg("Tools generated")

	return &Catalog{
		Registry:   reg,
		API:        api,
		AuthParams: gen.AuthParams(),
		BaseURL:    baseURL,
	}, nil
}
