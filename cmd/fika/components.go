package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/ai"
	"github.com/fikafood/fika/internal/chat"
	"github.com/fikafood/fika/internal/config"
	"github.com/fikafood/fika/internal/keyword"
	"github.com/fikafood/fika/internal/mealplan"
	"github.com/fikafood/fika/internal/records"
	"github.com/fikafood/fika/internal/render"
	"github.com/fikafood/fika/internal/server"
	"github.com/fikafood/fika/internal/storage"
	"github.com/fikafood/fika/internal/summary"
)

// Components holds initialized services.
type Components struct {
	Storage      *storage.SQLiteStorage
	Images       *storage.ImageStore
	KeywordIndex *keyword.BleveIndex
	AI           ai.Client
	Records      *records.Service
	Summary      *summary.Aggregator
	MealPlans    *mealplan.Service
	Chat         *chat.Service
	PDFCache     *render.Cache
	Style        render.Style
}

func (c *Components) Close() {
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// ServerDeps returns the handler dependencies.
func (c *Components) ServerDeps(cfg *config.Config) server.Deps {
	return server.Deps{
		Store:        c.Storage,
		Records:      c.Records,
		Summary:      c.Summary,
		MealPlans:    c.MealPlans,
		Chat:         c.Chat,
		PDFCache:     c.PDFCache,
		DefaultStyle: c.Style,
		DiskPaths:    []string{cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.ImageDir},
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	style, err := render.ParseStyle(cfg.Render.DefaultStyle)
	if err != nil {
		return nil, err
	}
	client, err := newAIClient(cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AI client: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, AI: client, Style: style}

	images, err := storage.NewImageStore(cfg.Storage.ImageDir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}
	c.Images = images

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.KeywordIndex = keywordIndex

	agg, err := newAggregator(store, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Summary = agg

	c.Records = records.NewService(client, store, images,
		records.WithIndex(keywordIndex),
		records.WithSpellChecker(keyword.NewSpellChecker(keywordIndex)),
		records.WithLogger(logger),
	)
	c.MealPlans = mealplan.NewService(client, store, mealplan.WithLogger(logger))
	c.Chat = chat.NewService(client, store, chat.WithLogger(logger))
	c.PDFCache = render.NewCache(cfg.Render.CacheSize)

	logger.Info("components initialized",
		zap.String("database", cfg.Storage.DatabasePath),
		zap.String("model", client.Model()),
		zap.String("vision_model", client.VisionModel()),
		zap.String("pdf_style", style.String()),
	)
	return c, nil
}

func newAggregator(store summary.Store, cfg *config.Config, logger *zap.Logger) (*summary.Aggregator, error) {
	loc, err := cfg.Summary.Location()
	if err != nil {
		return nil, err
	}
	return summary.NewAggregator(store,
		summary.WithLocation(loc),
		summary.WithMaxPeriodDays(cfg.Summary.MaxPeriodDays),
		summary.WithLogger(logger),
	), nil
}

// newAIClient builds the configured model client. The mock provider answers every
// prompt with an empty reply and is meant for offline runs.
func newAIClient(cfg config.AIConfig, logger *zap.Logger) (ai.Client, error) {
	switch cfg.Provider {
	case config.ProviderMock:
		if logger != nil {
			logger.Warn("using mock AI provider; analyses and plans will be empty")
		}
		return ai.NewMock(""), nil
	default:
		vision := cfg.VisionModel
		if vision == "" {
			vision = cfg.Model
		}
		return ai.NewGemini(ai.GeminiOptions{
			APIKey:          cfg.ResolvedAPIKey(),
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			VisionModel:     vision,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Timeout:         cfg.Timeout(),
			Logger:          logger,
		})
	}
}
