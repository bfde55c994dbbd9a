// Command lmserve runs the HTTP API for training and scoring Modified
// Kneser-Ney language models.
package main

import (
	"flag"
	"log"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"knlm-go/internal/config"
	"knlm-go/internal/controller"
	"knlm-go/internal/corpus"
	"knlm-go/internal/handler"
)

func main() {
	var appConfigPath = flag.String("app", "app.yaml", "Path to app configuration file")
	var sourceConfigPath = flag.String("source", "", "Path to an optional corpus source manifest")
	var workDir = flag.String("workdir", "", "Override for app.work_dir (models are stored under model.store_dir)")
	flag.Parse()

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(zapcore.InfoLevel)
	logger, err := cfgZap.Build()
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(*appConfigPath, *sourceConfigPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if *workDir != "" {
		cfg.App.WorkDir = *workDir
	}

	logger.Info("configuration loaded", zap.Any("config", cfg))

	registry, err := corpus.NewRegistry(cfg.Model.StoreDir, logger)
	if err != nil {
		logger.Fatal("failed to initialize session registry", zap.Error(err))
	}

	modelController := controller.NewModelController(registry, logger)
	router := handler.SetupRouter(modelController, logger)

	logger.Info("starting server", zap.String("listen_addr", cfg.App.ListenAddr))
	if err := http.ListenAndServe(cfg.App.ListenAddr, router); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
