package main

import (
	"yellowbox/internal/users/handler"
	"yellowbox/internal/users/repository"
	"yellowbox/internal/users/service"
	"yellowbox/internal/users/validator"
	"yellowbox/pkg/app"
	"yellowbox/pkg/config"
	"yellowbox/pkg/token"
)

const ServiceName = "users"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set for the Users service")
	}

	cfg.Log.Info("Starting Users service")
	userService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewUserHandler(userService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.UserService {
	userValidator := validator.NewUserValidator(cfg.Log)
	userRepo := repository.NewMongoUserRepository(cfg)
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	userService := service.NewUserService(
		userRepo,
		userValidator,
		issuer,
		cfg,
	)

	cfg.Log.Info("User service initialized", "database", cfg.MongoDatabaseName)
	return userService
}
