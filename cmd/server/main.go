package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flyttio/priskalk/internal/config"
	"github.com/flyttio/priskalk/internal/db"
	"github.com/flyttio/priskalk/internal/migrations"
	"github.com/flyttio/priskalk/internal/quotes"
	"github.com/flyttio/priskalk/internal/rates"
	"github.com/flyttio/priskalk/internal/route"
	"github.com/flyttio/priskalk/internal/seed"
)

type server struct {
	db         *sql.DB
	rateStore  *rates.Store
	quoteStore *quotes.Store
	resolver   *route.Resolver
	auth       *authService
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			log.Fatalf("failed to run database migrations: %v", err)
		}
		stats, err := seed.Run(database)
		if err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
		if stats.Inserts > 0 {
			log.Printf("seeded %d records", stats.Inserts)
		}
	}

	resolver := route.NewResolver(route.Config{
		NominatimBaseURL: cfg.NominatimBaseURL,
		OSRMBaseURL:      cfg.OSRMBaseURL,
		CountryBias:      cfg.CountryBias,
		Depot:            route.Point{Lat: cfg.DepotLat, Lon: cfg.DepotLon},
	})

	srv := &server{
		db:         database,
		rateStore:  rates.NewStore(database),
		quoteStore: quotes.NewStore(database),
		resolver:   resolver,
		auth:       newAuthService(cfg.AdminTokenSecret),
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/api/estimate", s.handleEstimate)
	r.Post("/api/distance", s.handleDistance)
	r.Post("/api/quotes", s.handleQuoteCreate)
	r.Get("/api/quotes", s.handleQuoteList)
	r.Get("/api/quotes/{id}", s.handleQuoteGet)
	r.Post("/api/quotes/{id}/transition", s.handleQuoteTransition)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.requireAdmin)
		r.Get("/admin/rates", s.handleRatesGet)
		r.Put("/admin/rates", s.handleRatesPut)
	})

	return r
}
