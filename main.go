package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bcdannyboy/fdquant/engines"
	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/positions"
	"github.com/joho/godotenv"
	"github.com/xhhuango/json"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file, using the environment", "err", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jobs, err := buildJobs(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	results, err := positions.PriceStrip(ctx, jobs,
		positions.WithWorkers(cfg.Workers),
		positions.WithProgress(os.Stdout),
		positions.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	quotes := make([]positions.Quote, len(results))
	for i, r := range results {
		if r.Err != nil {
			logger.Error("pricing failed", "job", r.Name, "err", r.Err)
		}
		quotes[i] = r.Quote(4)
	}

	out, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(cfg.Output, out, 0644); err != nil {
		log.Fatal(err)
	}
	logger.Info("wrote quotes", "file", cfg.Output, "count", len(quotes))
}

// buildJobs prices a call and a put per strike under Black-Scholes and
// under Heston.
func buildJobs(cfg config, logger *slog.Logger) ([]positions.Job, error) {
	bs, err := engines.NewFdBlackScholesVanillaEngine(
		models.NewBlackScholesProcess(cfg.Spot, cfg.Rate, cfg.Dividend, cfg.Vol),
		cfg.Grid, engines.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("black-scholes engine: %w", err)
	}

	hestonGrid := cfg.Grid
	hestonGrid.Scheme = cfg.HestonScheme
	heston, err := engines.NewFdHestonVanillaEngine(
		models.NewHestonProcess(cfg.Spot, cfg.Rate, cfg.Dividend, cfg.Heston),
		hestonGrid, engines.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("heston engine: %w", err)
	}

	exercise := engines.Exercise{Style: cfg.Exercise, Dates: []float64{cfg.Maturity}}
	var jobs []positions.Job
	for _, k := range cfg.Strikes {
		for _, t := range []models.OptionType{models.Call, models.Put} {
			opt := engines.VanillaOption{Payoff: models.NewPlainVanillaPayoff(t, k), Exercise: exercise}
			jobs = append(jobs,
				positions.Job{Name: fmt.Sprintf("bs %s %g", t, k), Option: opt, Engine: bs},
				positions.Job{Name: fmt.Sprintf("heston %s %g", t, k), Option: opt, Engine: heston},
			)
		}
	}
	return jobs, nil
}
