// Package sensor simulates the poultry house environmental feed:
// periodic random readings appended to the readings store, plus the
// alert thresholds the dashboard shows.
package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"farmops/internal/domain"
	"farmops/internal/metrics"
)

const (
	TempMin, TempMax         = 25.0, 35.0
	HumidityMin, HumidityMax = 50.0, 80.0
	AmmoniaMin, AmmoniaMax   = 200, 400
	LightMin, LightMax       = 300, 800

	TempAlert     = 32.0
	HumidityAlert = 80.0
	AmmoniaAlert  = 350
)

// Make produces one simulated reading. Temperature and humidity carry
// one decimal place, like the hardware they stand in for.
func Make(now time.Time) domain.Reading {
	return domain.Reading{
		CreatedAt:   now,
		Temperature: round1(TempMin + rand.Float64()*(TempMax-TempMin)),
		Humidity:    round1(HumidityMin + rand.Float64()*(HumidityMax-HumidityMin)),
		Ammonia:     AmmoniaMin + rand.IntN(AmmoniaMax-AmmoniaMin+1),
		Light:       LightMin + rand.IntN(LightMax-LightMin+1),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Alerts evaluates a reading against the house thresholds.
func Alerts(r domain.Reading) []string {
	alerts := []string{}
	if r.Temperature > TempAlert {
		alerts = append(alerts, fmt.Sprintf("high temperature: %.1f °C", r.Temperature))
	}
	if r.Humidity > HumidityAlert {
		alerts = append(alerts, fmt.Sprintf("high humidity: %.1f %%", r.Humidity))
	}
	if r.Ammonia > AmmoniaAlert {
		alerts = append(alerts, fmt.Sprintf("high ammonia: %d ppm", r.Ammonia))
	}
	return alerts
}

type ReadingSink interface {
	InsertReading(ctx context.Context, reading domain.Reading) error
}

// Generator appends one reading per interval until its context is
// cancelled. It owns no state beyond the sink handle.
type Generator struct {
	sink     ReadingSink
	interval time.Duration
	log      *slog.Logger
}

func NewGenerator(sink ReadingSink, interval time.Duration, log *slog.Logger) *Generator {
	return &Generator{sink: sink, interval: interval, log: log}
}

func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reading := Make(now.UTC())
			if err := g.sink.InsertReading(ctx, reading); err != nil {
				if ctx.Err() != nil {
					return
				}
				g.log.Error("save reading failed", "err", err)
				continue
			}
			metrics.ReadingsGenerated.Inc()
			g.log.Debug("reading generated",
				"temperature", reading.Temperature,
				"humidity", reading.Humidity,
				"ammonia", reading.Ammonia,
				"light", reading.Light,
			)
		}
	}
}
