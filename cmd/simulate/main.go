// simulate replays the literal end-to-end scenarios from spec §8 against a
// live reconciliation engine, for manual verification without real
// terminal hardware.
// Run: go run ./cmd/simulate
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/pfp-attendance/engine/config"
	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/infrastructure/mssql"
	"github.com/pfp-attendance/engine/internal/keyedmutex"
	"github.com/pfp-attendance/engine/internal/reconcile"
	"github.com/pfp-attendance/engine/internal/shiftresolver"
)

// punchSpec is one literal punch in a scenario's timeline.
type punchSpec struct {
	employeeID string
	deviceIP   string
	at         string // "2006-01-02 15:04:05"
}

// scenario names a spec §8 end-to-end case and its punch timeline.
type scenario struct {
	name    string
	punches []punchSpec
}

var scenarios = []scenario{
	{
		name: "normal in/out, no plan",
		punches: []punchSpec{
			{"05233", "10.0.0.1", "2025-01-15 08:00:00"},
			{"05233", "10.0.0.1", "2025-01-15 17:00:00"},
		},
	},
	{
		name: "sub-minute duplicate",
		punches: []punchSpec{
			{"05233", "10.0.0.1", "2025-01-15 08:00:00"},
			{"05233", "10.0.0.1", "2025-01-15 08:00:30"},
		},
	},
	{
		name: "amend within 1h, then new shift after 1h",
		punches: []punchSpec{
			{"05233", "10.0.0.1", "2025-01-15 08:00:00"},
			{"05233", "10.0.0.1", "2025-01-15 17:00:00"},
			{"05233", "10.0.0.2", "2025-01-15 17:45:00"},
			{"05233", "10.0.0.1", "2025-01-15 19:00:00"},
		},
	},
	{
		name: "overnight shift (requires a VListPeriodEmployee row for 2025-01-15, in_tmp=22:00 out_tmp=06:00)",
		punches: []punchSpec{
			{"05233", "10.0.0.1", "2025-01-15 21:55:00"},
			{"05233", "10.0.0.1", "2025-01-16 06:10:00"},
		},
	},
	{
		name: "cleanup of abandoned prior shift (requires a dangling open row from 2025-01-14 08:00)",
		punches: []punchSpec{
			{"05233", "10.0.0.1", "2025-01-15 08:05:00"},
		},
	},
	{
		name: "out-only on late first punch (requires a plan row in_tmp=08:00 out_tmp=17:00)",
		punches: []punchSpec{
			{"05233", "10.0.0.1", "2025-01-15 16:30:00"},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	ctx := context.Background()

	pool, err := mssql.NewPool(ctx, mssql.Config{
		Server:   cfg.MSSQLServer,
		Database: cfg.MSSQLDatabase,
		User:     cfg.MSSQLUser,
		Password: cfg.MSSQLPassword,
	})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	ledger := mssql.NewLedger(pool)
	resolver := shiftresolver.New(ledger)
	engine := reconcile.New(ledger, resolver, keyedmutex.New(cfg.ShardCount), logger)

	for _, sc := range scenarios {
		fmt.Printf("=== %s ===\n", sc.name)
		for _, p := range sc.punches {
			instant, err := time.Parse("2006-01-02 15:04:05", p.at)
			if err != nil {
				log.Fatalf("bad timestamp %q: %v", p.at, err)
			}

			outcome, err := engine.Process(ctx, domain.Punch{
				DeviceIP:   p.deviceIP,
				EmployeeID: p.employeeID,
				Timestamp:  instant,
				Kind:       domain.PunchKindUnknown,
			})
			if err != nil {
				fmt.Printf("  punch %-20s -> ERROR: %v\n", p.at, err)
				continue
			}
			fmt.Printf("  punch %-20s -> %s\n", p.at, outcome)
		}
	}
}
