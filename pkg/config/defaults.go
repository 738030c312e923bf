package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "yellowbox"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultLockerServiceURL = "http://localhost:3355"
	DefaultUserServiceURL   = "http://localhost:3366"
	DefaultRemoteTimeout    = 60 * time.Second
	DefaultMaxResponseSize  = 500 * 1000 * 1000 // 500MB

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPendingBookingTTL = 2 * time.Minute
	DefaultReconcileInterval = 30 * time.Second

	DefaultKafkaBookingTopic = "booking-events"

	DefaultJWTTTL = 24 * time.Hour

	DefaultPaginationLimit = 100
)
