package main

import (
	"github.com/feedtick/feedtick/internal/common/config"
	"github.com/feedtick/feedtick/internal/common/logger"
	"github.com/feedtick/feedtick/internal/forge"
	"github.com/feedtick/feedtick/internal/pipeline"
	"github.com/feedtick/feedtick/internal/pypi"
	"github.com/feedtick/feedtick/internal/render"
)

// buildPipeline wires config, GitHub client, PyPI client, pending list, and
// the optional renderer into a ready pipeline. force drops the version-lookup
// cache so every lookup hits PyPI.
func buildPipeline(force bool) (*pipeline.Pipeline, *pipeline.PendingList, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	token, err := cfg.GetGitHubToken()
	if err != nil {
		return nil, nil, err
	}

	forgeClient := forge.New(token)
	if cfg.GitHub.User != "" {
		forgeClient.SetUser(cfg.GitHub.User)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}

	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, nil, err
	}

	var pypiOpts []pypi.ClientOption
	cache, err := pypi.NewCache(dataDir, pypi.WithTTL(ttl))
	if err != nil {
		logger.Warn("version cache unavailable: %v", err)
	} else {
		if force {
			if err := cache.Clear(); err != nil {
				logger.Warn("clearing version cache: %v", err)
			}
		}
		pypiOpts = append(pypiOpts, pypi.WithCache(cache))
	}
	pypiClient := pypi.NewClient(pypiOpts...)
	if cfg.PyPI.BaseURL != "" {
		pypiClient.BaseURL = cfg.PyPI.BaseURL
	}

	pending, err := pipeline.NewPendingList(dataDir)
	if err != nil {
		return nil, nil, err
	}

	overrides, err := config.LoadOverrides(dataDir)
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithPendingList(pending),
		pipeline.WithIgnoredRequirements(overrides.MergedIgnores(cfg.GetIgnoredRequirements())),
		pipeline.WithSkip(overrides.SkipSet()),
		pipeline.WithBundleTypes(overrides.BundleTypes()),
	}

	if cfg.Render.Enabled {
		var renderOpts []render.Option
		if len(cfg.Render.Command) > 0 {
			renderOpts = append(renderOpts, render.WithSmithyCommand(cfg.Render.Command))
		}
		opts = append(opts, pipeline.WithRenderer(render.New(cfg.GetRenderWorkDir(), renderOpts...)))
	}

	return pipeline.New(forgeClient, pypiClient, opts...), pending, nil
}
