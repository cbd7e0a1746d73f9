package main

import (
	"log"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/internal/encoder"
	jobsRepository "github.com/skobyn/media-core/internal/jobs/repository"
	jobsUsecase "github.com/skobyn/media-core/internal/jobs/usecase"
	"github.com/skobyn/media-core/internal/probe"
	"github.com/skobyn/media-core/internal/server"
	streamingRepository "github.com/skobyn/media-core/internal/streaming/repository"
	streamingUsecase "github.com/skobyn/media-core/internal/streaming/usecase"
	"github.com/skobyn/media-core/pkg/db/redis"
	"github.com/skobyn/media-core/pkg/logger"
)

func main() {
	log.Println("Starting media core")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	defer redisClient.Close()
	appLogger.Infof("redis connected")

	prober := probe.NewProber(cfg.Media.FFprobeBin)
	engine := encoder.NewFFmpegEngine(cfg, prober, appLogger)

	jobRepo := jobsRepository.NewJobRedisRepo(redisClient)
	orchestrator := jobsUsecase.NewOrchestrator(cfg, jobRepo, engine, appLogger)

	streamingRepo := streamingRepository.NewStreamingRedisRepo(redisClient)
	resolver := streamingRepository.NewContentFSResolver(cfg.Media.Root)
	sessions := streamingUsecase.NewSessionManager(cfg, streamingRepo, resolver, appLogger)

	s := server.NewServer(cfg, redisClient, orchestrator, sessions, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Fatalf("could not start server: %s", err)
	}
}
