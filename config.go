package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/bcdannyboy/fdquant/engines"
	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/schemes"
)

// config is read from the environment, usually through a .env file.
type config struct {
	Spot, Rate, Dividend, Vol float64
	Maturity                  float64
	Strikes                   []float64
	Exercise                  engines.ExerciseStyle

	Heston *models.HestonModel

	Grid         engines.GridParams
	HestonScheme schemes.Desc
	Workers      int

	Output   string
	LogLevel slog.Level
}

func loadConfig() (config, error) {
	var (
		c   config
		err error
	)
	get := func(key string, def float64) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = envFloat(key, def)
		return v
	}
	getInt := func(key string, def int) int {
		if err != nil {
			return 0
		}
		var v int
		v, err = envInt(key, def)
		return v
	}

	c.Spot = get("FDQ_SPOT", 100)
	c.Rate = get("FDQ_RATE", 0.05)
	c.Dividend = get("FDQ_DIVIDEND", 0)
	c.Vol = get("FDQ_VOL", 0.2)
	c.Maturity = get("FDQ_MATURITY", 1)
	c.Heston = models.NewHestonModel(
		get("HESTON_V0", 0.04),
		get("HESTON_KAPPA", 1.5),
		get("HESTON_THETA", 0.04),
		get("HESTON_XI", 0.3),
		get("HESTON_RHO", -0.5),
	)
	c.Grid = engines.DefaultGridParams()
	c.Grid.TGrid = getInt("FDQ_TGRID", c.Grid.TGrid)
	c.Grid.XGrid = getInt("FDQ_XGRID", c.Grid.XGrid)
	c.Grid.VGrid = getInt("FDQ_VGRID", c.Grid.VGrid)
	c.Grid.DampingSteps = getInt("FDQ_DAMPING", c.Grid.DampingSteps)
	c.Workers = getInt("FDQ_WORKERS", 0)
	if err != nil {
		return config{}, err
	}

	if c.Strikes, err = parseStrikes(envString("FDQ_STRIKES", "80,90,100,110,120")); err != nil {
		return config{}, err
	}
	switch ex := strings.ToLower(envString("FDQ_EXERCISE", "european")); ex {
	case "european":
		c.Exercise = engines.European
	case "american":
		c.Exercise = engines.American
	default:
		return config{}, fmt.Errorf("FDQ_EXERCISE: unsupported exercise %q", ex)
	}
	if c.Grid.Scheme, err = schemes.DescByName(envString("FDQ_SCHEME", "Douglas")); err != nil {
		return config{}, fmt.Errorf("FDQ_SCHEME: %w", err)
	}
	if c.HestonScheme, err = schemes.DescByName(envString("FDQ_HESTON_SCHEME", "Hundsdorfer")); err != nil {
		return config{}, fmt.Errorf("FDQ_HESTON_SCHEME: %w", err)
	}
	if err := c.LogLevel.UnmarshalText([]byte(envString("FDQ_LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("FDQ_LOG_LEVEL: %w", err)
	}
	c.Output = envString("FDQ_OUTPUT", "fdquant.json")
	return c, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseStrikes(list string) ([]float64, error) {
	var strikes []float64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		k, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("FDQ_STRIKES: %w", err)
		}
		strikes = append(strikes, k)
	}
	if len(strikes) == 0 {
		return nil, fmt.Errorf("FDQ_STRIKES: no strikes in %q", list)
	}
	return strikes, nil
}
