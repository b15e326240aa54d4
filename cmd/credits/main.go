package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/adapter/repo"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/ledger"
)

const usage = `usage: credits [flags] <balance|history|grant|purchase|plan>

  credits -tenant acme balance
  credits -tenant acme -limit 10 history
  credits -tenant acme -amount 25 grant
  credits -tenant acme -pack medium purchase
  credits -tenant acme -plan pro plan
`

func main() {
	var (
		tenantFlag  string
		backendFlag string
		amountFlag  int64
		packFlag    string
		planFlag    string
		limitFlag   int
	)
	flag.StringVar(&tenantFlag, "tenant", "", "tenant ID")
	flag.StringVar(&backendFlag, "backend", "", "ledger backend (postgres or redis); defaults to LEDGER_BACKEND")
	flag.Int64Var(&amountFlag, "amount", 0, "credits to grant")
	flag.StringVar(&packFlag, "pack", "", "credit pack to purchase (small, medium, large)")
	flag.StringVar(&planFlag, "plan", "", "plan whose monthly credits to grant (starter, pro, enterprise)")
	flag.IntVar(&limitFlag, "limit", 20, "history entries to show")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()

	tenant := strings.TrimSpace(tenantFlag)
	if tenant == "" || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	backend := strings.ToLower(strings.TrimSpace(backendFlag))
	if backend == "" {
		backend = strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_BACKEND")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger := infra.NewLogger("cli", "credits").With().Str("tenant", tenant).Logger()
	credits, closeFn, err := openLedger(ctx, backend, logger)
	if err != nil {
		exitWithError(err)
	}
	defer closeFn()

	switch cmd := flag.Arg(0); cmd {
	case "balance":
		balance, err := credits.Balance(ctx, tenant)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("%s balance=%d\n", tenant, balance)
	case "history":
		entries, err := credits.History(ctx, tenant, limitFlag)
		if err != nil {
			exitWithError(err)
		}
		printHistory(entries)
	case "grant":
		if amountFlag <= 0 {
			exitWithError(errors.New("-amount must be positive"))
		}
		balance, err := credits.Credit(ctx, tenant, amountFlag, domain.ReasonGrant)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("granted %d credits to %s, balance=%d\n", amountFlag, tenant, balance)
	case "purchase":
		balance, err := credits.PurchasePack(ctx, tenant, packFlag)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("pack %s added to %s, balance=%d\n", packFlag, tenant, balance)
	case "plan":
		balance, err := credits.GrantPlan(ctx, tenant, planFlag)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("plan %s credits added to %s, balance=%d\n", planFlag, tenant, balance)
	default:
		exitWithError(fmt.Errorf("unknown command %q", cmd))
	}
}

func openLedger(ctx context.Context, backend string, logger infra.Logger) (*ledger.Ledger, func(), error) {
	switch backend {
	case infra.BackendPostgres:
		cfg := &infra.Config{DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL"))}
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := repo.NewLedgerStore(infra.NewSQLRunner(pool, logger))
		return ledger.New(store, ledger.Options{Logger: &logger}), pool.Close, nil
	case infra.BackendRedis:
		cfg := &infra.Config{
			RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		}
		if cfg.RedisAddr == "" {
			return nil, nil, errors.New("REDIS_ADDR is required")
		}
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := ledger.NewRedisStore(client, "ugp")
		return ledger.New(store, ledger.Options{Logger: &logger}), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("backend must be postgres or redis, got %q", backend)
}

func printHistory(entries []domain.LedgerEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tDELTA\tREASON\tBALANCE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%+d\t%s\t%d\n", e.CreatedAt.Format(time.RFC3339), e.Delta, e.Reason, e.BalanceAfter)
	}
	_ = w.Flush()
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
