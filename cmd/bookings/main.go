package main

import (
	"yellowbox/internal/bookings/events"
	"yellowbox/internal/bookings/handler"
	"yellowbox/internal/bookings/repository"
	"yellowbox/internal/bookings/service"
	"yellowbox/internal/bookings/validator"
	"yellowbox/pkg/app"
	"yellowbox/pkg/client"
	"yellowbox/pkg/config"
	"yellowbox/pkg/kafka"
	"yellowbox/pkg/logger"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	bookingService, publisherWorker := initServices(cfg)

	reconciler := service.NewReconciler(bookingService, cfg.ReconcileInterval, cfg.Log)
	reconciler.Start()

	serverApp := app.NewApplication(cfg)
	serverApp.ForwardAuth()
	serverApp.AddWorker(reconciler)
	if publisherWorker != nil {
		serverApp.AddWorker(publisherWorker)
	}
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.BookingService, app.Shutdowner) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockerClient := client.NewLockerClient(cfg.LockerServiceURL, cfg.RemoteTimeout, cfg.MaxResponseSize)
	userClient := client.NewUserClient(cfg.UserServiceURL, cfg.RemoteTimeout, cfg.MaxResponseSize)

	publisher, publisherWorker := initPublisher(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		lockerClient,
		userClient,
		publisher,
		bookingValidator,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, publisherWorker
}

func initPublisher(cfg *config.Config) (events.Publisher, app.Shutdowner) {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("No Kafka brokers configured, booking events disabled")
		return events.NopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaBookingTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	cfg.Log.Info("Kafka producer initialized", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaBookingTopic)
	return events.NewKafkaPublisher(producer, cfg.Log), &producerCloser{producer: producer, log: cfg.Log}
}

type producerCloser struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func (c *producerCloser) Stop() {
	if err := c.producer.Close(); err != nil {
		c.log.Error("Failed to close Kafka producer", "error", err)
	}
}
