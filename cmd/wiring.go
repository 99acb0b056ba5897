package main

import (
	"context"
	"errors"
	"os"

	"github.com/rotisserie/eris"

	"github.com/abandonsearch/place-rater/internal/artifact"
	"github.com/abandonsearch/place-rater/internal/config"
	"github.com/abandonsearch/place-rater/internal/invoke"
	"github.com/abandonsearch/place-rater/internal/model"
	anthropicpkg "github.com/abandonsearch/place-rater/pkg/anthropic"
	"github.com/abandonsearch/place-rater/pkg/gemini"
)

func initArtifacts(ctx context.Context, c *config.Config) (artifact.Log, error) {
	switch c.Artifacts.Driver {
	case config.DriverFile:
		return artifact.NewFileLog(c.Artifacts.Dir), nil
	case config.DriverSQLite:
		s, err := artifact.NewSQLite(c.Artifacts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, eris.Wrap(err, "migrate artifacts")
		}
		return s, nil
	default:
		return nil, eris.Errorf("unsupported artifacts driver: %s", c.Artifacts.Driver)
	}
}

// artifactIndices lists artifact indices without creating anything on disk.
// A missing sqlite database has no artifacts.
func artifactIndices(ctx context.Context, c *config.Config) ([]int, error) {
	var log artifact.Log
	switch c.Artifacts.Driver {
	case config.DriverFile:
		log = artifact.NewFileLog(c.Artifacts.Dir)
	case config.DriverSQLite:
		s, err := artifact.OpenSQLiteReadOnly(c.Artifacts.SQLitePath)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		log = s
	default:
		return nil, eris.Errorf("unsupported artifacts driver: %s", c.Artifacts.Driver)
	}
	defer log.Close()
	return log.Indices(ctx)
}

// initRouter registers an invoker for every provider in the pool. The
// returned cleanup closes the provider clients.
func initRouter(ctx context.Context, c *config.Config) (*invoke.Router, func(), error) {
	router := invoke.NewRouter()
	var closers []func() error
	cleanup := func() {
		for _, fn := range closers {
			_ = fn()
		}
	}

	for _, b := range c.Pool {
		if router.Has(b.Provider) {
			continue
		}
		switch b.Provider {
		case model.ProviderGoogle:
			client, err := gemini.NewClient(ctx, c.Gemini.Key)
			if err != nil {
				cleanup()
				return nil, nil, eris.Wrap(err, "init gemini client")
			}
			closers = append(closers, client.Close)
			images := invoke.NewImageLoader(c.Images.FetchTimeout(), c.Gemini.MaxImages)
			router.Register(b.Provider, invoke.NewGeminiInvoker(client, images, invoke.GeminiOptions{
				Temperature:     c.Gemini.Temperature,
				MaxOutputTokens: c.Gemini.MaxOutputTokens,
			}), c.Gemini.RequestsPerMinute)
		case model.ProviderAnthropic:
			client := anthropicpkg.NewClient(c.Anthropic.Key)
			router.Register(b.Provider,
				invoke.NewAnthropicInvoker(client, c.Anthropic.MaxTokens, c.Anthropic.Temperature),
				c.Anthropic.RequestsPerMinute)
		default:
			cleanup()
			return nil, nil, eris.Errorf("unsupported provider: %s", b.Provider)
		}
	}
	return router, cleanup, nil
}
