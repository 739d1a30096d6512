//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/aqi-predictor/internal/bootstrap"
	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	"github.com/yanqian/aqi-predictor/internal/infra/config"
	httpiface "github.com/yanqian/aqi-predictor/internal/interface/http"
	"github.com/yanqian/aqi-predictor/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideFormConfig,
		provideServiceConfig,
		provideSessionConfig,
		provideCounters,
		provideHistoryRepository,
		provideLocationStats,
		providePredictor,
		provideSessionRegistry,
		airquality.NewService,
		httpiface.NewHandler,
		httpiface.NewFormHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
