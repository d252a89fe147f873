package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/deepworx/coffeeshop/pkg/postgres"

// poolGauge describes one observable pool statistic.
type poolGauge struct {
	name        string
	description string
	value       func(*pgxpool.Stat) int64
}

var poolGauges = []poolGauge{
	{
		name:        "db.pool.total_conns",
		description: "Total number of connections in the pool",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.TotalConns()) },
	},
	{
		name:        "db.pool.idle_conns",
		description: "Number of idle connections in the pool",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.IdleConns()) },
	},
	{
		name:        "db.pool.acquired_conns",
		description: "Number of acquired connections in use",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.AcquiredConns()) },
	},
	{
		name:        "db.pool.max_conns",
		description: "Maximum configured connections",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.MaxConns()) },
	},
	{
		name:        "db.pool.empty_acquire_count",
		description: "Acquires that waited because the pool was empty",
		value:       func(s *pgxpool.Stat) int64 { return s.EmptyAcquireCount() },
	},
}

func registerMetrics(pool *pgxpool.Pool) error {
	return registerGauges(otel.Meter(meterName), pool.Stat)
}

func registerGauges(meter metric.Meter, stat func() *pgxpool.Stat) error {
	instruments := make([]metric.Observable, 0, len(poolGauges))
	gauges := make([]metric.Int64ObservableGauge, 0, len(poolGauges))

	for _, g := range poolGauges {
		gauge, err := meter.Int64ObservableGauge(g.name,
			metric.WithDescription(g.description),
			metric.WithUnit("{connection}"),
		)
		if err != nil {
			return fmt.Errorf("register %s metric: %w", g.name, err)
		}
		instruments = append(instruments, gauge)
		gauges = append(gauges, gauge)
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stat()
		for i, g := range poolGauges {
			o.ObserveInt64(gauges[i], g.value(s))
		}
		return nil
	}, instruments...)
	if err != nil {
		return fmt.Errorf("register pool metrics callback: %w", err)
	}
	return nil
}
