package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/poolnhl/go/internal/dbconfig"
	"github.com/mcdev12/poolnhl/go/internal/models"
)

const upsertTrade = `
    INSERT INTO trade_history (
      id, pool_name, proposed_by, ask_to, from_items, to_items,
      status, date_created, date_accepted
    ) VALUES (
      $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    ON CONFLICT (id) DO NOTHING
`

// historyRow is one trade_history row built from an exported pool.
type historyRow struct {
	ID           string
	PoolName     string
	ProposedBy   string
	AskTo        string
	FromItems    string
	ToItems      string
	Status       string
	DateCreated  time.Time
	DateAccepted *time.Time
}

func toRow(poolName string, t models.Trade) (historyRow, error) {
	if _, err := models.ParseTradeStatus(string(t.Status)); err != nil {
		return historyRow{}, err
	}
	if t.ProposedBy == t.AskTo {
		return historyRow{}, fmt.Errorf("trade %s proposes to itself", t.ID)
	}
	from, err := json.Marshal(t.FromItems)
	if err != nil {
		return historyRow{}, err
	}
	to, err := json.Marshal(t.ToItems)
	if err != nil {
		return historyRow{}, err
	}
	return historyRow{
		ID:           t.ID.String(),
		PoolName:     poolName,
		ProposedBy:   t.ProposedBy,
		AskTo:        t.AskTo,
		FromItems:    string(from),
		ToItems:      string(to),
		Status:       string(t.Status),
		DateCreated:  t.DateCreated.UTC(),
		DateAccepted: t.DateAccepted,
	}, nil
}

func main() {
	path := flag.String("pool", "pool.json", "pool snapshot exported from the pool service")
	flag.Parse()

	// 1) Load the pool snapshot
	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var pool models.Pool
	if err := json.Unmarshal(data, &pool); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "database config: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	conn, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	// 3) Insert and count
	var (
		total    = len(pool.Trades)
		inserted int
		skipped  int
		errs     int
	)

	for _, t := range pool.Trades {
		row, err := toRow(pool.Name, t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping trade %s: %v\n", t.ID, err)
			errs++
			continue
		}
		cmdTag, err := conn.Exec(ctx, upsertTrade,
			row.ID, row.PoolName, row.ProposedBy, row.AskTo, row.FromItems, row.ToItems,
			row.Status, row.DateCreated, row.DateAccepted,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting trade %s: %v\n", row.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Trade import for %s complete: %d total, %d inserted, %d skipped, %d errors\n",
		pool.Name, total, inserted, skipped, errs,
	)
}
