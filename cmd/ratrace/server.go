package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/ratrace/cmd/ratrace/shared"
	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/ratings"
	"github.com/lox/ratrace/internal/refdata"
	"github.com/lox/ratrace/internal/registry"
	"github.com/lox/ratrace/internal/server"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Addr         string `kong:"default=':8080',help='Server address'"`
	Debug        bool   `kong:"help='Enable debug logging'"`
	JSONLogs     bool   `kong:"name='json-logs',help='Emit structured JSON logs'"`
	Catalog      string `kong:"help='Path to HCL catalog file (professions, dreams, cards, tracks)'"`
	MaxRooms     int    `kong:"default='100',help='Maximum concurrent rooms'"`
	MaxPlayers   int    `kong:"default='6',help='Default maximum players per room'"`
	TurnBudget   int    `kong:"default='120',help='Per-turn time budget in seconds'"`
	GameDuration int    `kong:"help='Game duration limit in minutes (0 = unlimited)'"`
	Interest     int    `kong:"default='10',help='Monthly credit interest rate percent'"`
	ReapGrace    int    `kong:"default='300',help='Seconds a finished room lingers before removal'"`
	Seed         *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
	Ratings      string `kong:"help='Ratings service endpoint URL (empty disables reporting)'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	if c.JSONLogs {
		logger = shared.SetupStructuredLogger(c.Debug)
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
		logger.Info("using random seed", "seed", seed)
	}

	catalog, err := refdata.Load(c.Catalog)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded",
		"professions", len(catalog.Professions),
		"dreams", len(catalog.Dreams),
		"small_deals", len(catalog.SmallDeals),
		"big_deals", len(catalog.BigDeals))

	defaults := game.RoomConfig{
		MaxPlayers:          c.MaxPlayers,
		TurnBudgetSeconds:   c.TurnBudget,
		GameDurationMinutes: c.GameDuration,
		InterestRatePercent: c.Interest,
	}

	reporter := ratings.New(c.Ratings, logger)

	s := server.NewServer(logger)
	svc := server.NewGameService(s, catalog, quartz.NewReal(), reporter, defaults, registry.Options{
		MaxRooms:  c.MaxRooms,
		ReapGrace: time.Duration(c.ReapGrace) * time.Second,
		Seed:      seed,
	}, logger)

	logger.Info("starting server",
		"address", c.Addr,
		"max_rooms", c.MaxRooms,
		"turn_budget", c.TurnBudget,
		"interest", c.Interest,
		"ratings", c.Ratings != "")

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	go func() {
		if err := svc.Registry().StartReaper(ctx); err != nil {
			logger.Error("room reaper stopped", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(c.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.Shutdown(shutdownCtx)
		reporter.Wait()
		return err
	case err := <-serverErr:
		return err
	}
}
