package main

import (
	"net/http"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/handlers"
	"BlobKeeper/internal/middleware"
	"BlobKeeper/internal/repo"
	"BlobKeeper/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	store, err := repo.NewStore(cfg.DatabasePath, repo.Limits{
		BackupsPerHour: uint32(cfg.BackupsPerHour),
		BackupsPerDay:  uint32(cfg.BackupsPerDay),
	}, cfg.StorageWorkers)
	if err != nil {
		sugar.Fatalw("failed to open database", "path", cfg.DatabasePath, "error", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			sugar.Errorw("Failed to close database", "error", err)
		}
	}()

	userService := service.NewUserService(store, cfg, sugar)
	backupService := service.NewBackupService(store, cfg, sugar)

	h := handlers.NewHandler(userService, backupService, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"DatabasePath", cfg.DatabasePath,
		"BackupsPerHour", cfg.BackupsPerHour,
		"BackupsPerDay", cfg.BackupsPerDay,
		"MaxBackupBytes", cfg.MaxBackupBytes,
		"AdminEnabled", cfg.AdminKey != "",
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
