package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Guillaumeperrottet/selfkey-sub000/config"
	"github.com/Guillaumeperrottet/selfkey-sub000/controllers"
	"github.com/Guillaumeperrottet/selfkey-sub000/metrics"
	"github.com/Guillaumeperrottet/selfkey-sub000/routes"
	"github.com/Guillaumeperrottet/selfkey-sub000/services"
	"github.com/Guillaumeperrottet/selfkey-sub000/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Database connect failed: %v", err)
	}
	db := config.DB
	log.Println("Database connection established and migrations applied")

	metrics.Register()

	// Initialize services
	establishmentService := services.NewEstablishmentService(db)
	availabilityService := services.NewAvailabilityService(db)
	optionService := services.NewOptionService(db)
	ledgerService := services.NewLedgerService(db)
	lifecycle := services.NewBookingLifecycle(db, optionService, ledgerService)

	// Optional Redis catalog cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache := services.NewCatalogCache(
			addr,
			os.Getenv("REDIS_PASSWORD"),
			utils.EnvIntOrDefault("REDIS_DB", 0),
			utils.EnvDurationOrDefault("CATALOG_CACHE_TTL", 5*time.Minute),
		)
		if err := cache.Ping(context.Background()); err != nil {
			log.Printf("Redis unavailable, catalog cache disabled: %v", err)
		} else {
			optionService.Cache = cache
			defer cache.Close()
			log.Println("Catalog cache enabled")
		}
	}

	// Initialize controllers
	availabilityController := controllers.NewAvailabilityController(establishmentService, availabilityService)
	optionController := controllers.NewPricingOptionController(establishmentService, optionService)
	bookingController := controllers.NewBookingController(establishmentService, lifecycle)

	router := routes.SetupRouter(availabilityController, optionController, bookingController)

	// Reaper for abandoned pending bookings; timeout is operator policy.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	reaper := services.NewPendingReaper(
		ledgerService,
		utils.EnvDurationOrDefault("PENDING_TIMEOUT", 30*time.Minute),
		utils.EnvDurationOrDefault("REAPER_INTERVAL", time.Minute),
	)
	go reaper.Run(reaperCtx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, shutting down server...")

	stopReaper()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}
