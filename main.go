// File: medibook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medibook/config"
	"medibook/cron"
	"medibook/database"
	appointmentRepo "medibook/database/repository/appointment"
	providerRepo "medibook/database/repository/provider"
	scheduleRepo "medibook/database/repository/schedule"
	"medibook/handlers"
	"medibook/middleware"
	"medibook/routes"
	"medibook/services/booking"
	"medibook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitAttemptCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	provRepo := providerRepo.NewMongoProviderRepo()
	schedRepo := scheduleRepo.NewMongoScheduleRepo()
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()

	if err := schedRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure schedule indexes: %v", err)
	}
	if err := apptRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure appointment indexes: %v", err)
	}

	// services.
	holdTTL := time.Duration(config.AppConfig.HoldTTLMinutes) * time.Minute
	sweeper := cron.NewSweeper()

	bookingService := &booking.DefaultBookingService{
		Providers:    provRepo,
		Appointments: apptRepo,
		Allocator:    booking.NewSlotAllocator(schedRepo),
		Attempts:     booking.NewRedisAttemptStore(utils.GetAttemptCacheClient(), 6*holdTTL),
		Gateway:      booking.NewStripeGateway(),
		Expiry:       sweeper,
		HoldTTL:      holdTTL,
	}

	cron.InitSweepWorker(bookingService)

	// Assemble the handler bundle.
	handlerBundle := &routes.HandlerBundle{
		Booking:     handlers.NewBookingHandler(bookingService),
		Payment:     handlers.NewPaymentHandler(bookingService),
		Appointment: handlers.NewAppointmentHandler(bookingService),
		Provider:    handlers.NewProviderHandler(provRepo),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
