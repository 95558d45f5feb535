package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/config"
	"github.com/agrihub/seed-reservation/internal/database"
	"github.com/agrihub/seed-reservation/internal/engine"
	"github.com/agrihub/seed-reservation/internal/handler"
	"github.com/agrihub/seed-reservation/internal/queue"
	"github.com/agrihub/seed-reservation/internal/repository"
	"github.com/agrihub/seed-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the response cache and rate limiter
	// degrade to pass-throughs.
	rdb := config.NewRedisClient()

	provinces := repository.NewProvinceRepo(db)
	varieties := repository.NewVarietyRepo(db)
	allocations := repository.NewAllocationRepo(db)
	farmers := repository.NewFarmerRepo(db)
	reservations := repository.NewReservationRepo(db)
	movements := repository.NewMovementRepo(db)
	distributors := repository.NewDistributorRepo(db)
	staff := repository.NewStaffRepo(db)

	eng := engine.New(db, provinces, varieties, allocations, farmers, reservations, movements)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, staff), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewCatalogHandler(provinces, varieties, allocations, distributors),
		handler.NewFarmerHandler(farmers, provinces, reservations),
		handler.NewReservationHandler(eng, reservations),
		rdb,
	)
	router.RegisterStaff(e,
		handler.NewStaffReservationHandler(eng, reservations),
		handler.NewStaffQuotaHandler(eng, provinces, movements),
		handler.NewStaffAllocationHandler(provinces, varieties, allocations),
		cfg.JWTSecret,
	)

	// Background consumer logging status changes; runs its own reconnect loop.
	go func() {
		if err := queue.StartStatusConsumer(); err != nil {
			log.Printf("status consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
