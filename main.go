package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nitro-neal/toonout-docker/config"
	"github.com/nitro-neal/toonout-docker/inference"
	"github.com/nitro-neal/toonout-docker/pipeline"
	"github.com/nitro-neal/toonout-docker/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg := config.New()

	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()
	logger := utils.Logger

	logger.Info("starting toonout server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	libPath, err := resolveLibraryPath(cfg.Model.LibraryPath)
	if err != nil {
		logger.Fatal("failed to locate onnxruntime library", zap.Error(err))
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		logger.Fatal("failed to initialize ONNX environment", zap.Error(err))
	}
	defer ort.DestroyEnvironment()

	engine, err := inference.NewEngine(inference.Options{
		ModelPath:  cfg.Model.Path,
		Device:     cfg.Model.Device,
		PoolSize:   cfg.Model.PoolSize,
		InputSize:  cfg.Model.InputSize,
		InputName:  cfg.Model.InputName,
		OutputName: cfg.Model.OutputName,
	}, logger)
	if err != nil {
		logger.Fatal("failed to load model", zap.Error(err))
	}
	defer engine.Close()

	pipe := pipeline.New(engine, logger)
	srv := newServer(cfg, engine, pipe, logger)

	httpSrv := &http.Server{
		Handler:      srv.router(),
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
