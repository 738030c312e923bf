package main

import (
	"yellowbox/internal/lockers/handler"
	"yellowbox/internal/lockers/repository"
	"yellowbox/internal/lockers/service"
	"yellowbox/internal/lockers/validator"
	"yellowbox/pkg/app"
	"yellowbox/pkg/config"
)

const ServiceName = "lockers"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Lockers service")
	lockerService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewLockerHandler(lockerService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.LockerService {
	lockerValidator := validator.NewLockerValidator(cfg.Log)
	lockerRepo := repository.NewMongoLockerRepository(cfg)
	lockerService := service.NewLockerService(
		lockerRepo,
		lockerValidator,
		cfg,
	)

	cfg.Log.Info("Locker service initialized", "database", cfg.MongoDatabaseName)
	return lockerService
}
