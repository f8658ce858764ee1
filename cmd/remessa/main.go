package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"fidc/internal/allocator"
	"fidc/internal/domain"
	"fidc/internal/instrument"
	"fidc/internal/remittance"
	"fidc/internal/repository/postgres"
	"fidc/pkg/config"
	"fidc/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("remessa")

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required", nil)
	}
	if len(os.Args) < 2 {
		usage()
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	txRunner := postgres.NewTxRunner(db)
	profiles := postgres.NewBankProfileRepository(db)
	instruments := postgres.NewInstrumentRepository(db)
	batches := postgres.NewBatchRepository(db)

	alloc := allocator.New(profiles, log)
	issuer := instrument.NewService(txRunner, profiles, alloc, instruments, log)
	generator := remittance.NewService(txRunner, alloc, batches, instruments, log)

	ctx := context.Background()

	switch os.Args[1] {
	case "issue":
		if len(os.Args) < 5 {
			usage()
		}
		runIssue(ctx, log, issuer, cfg.Remittance.DueDays, os.Args[2], os.Args[3], os.Args[4])

	case "approve":
		if len(os.Args) < 3 {
			usage()
		}
		runApprove(ctx, log, issuer, os.Args[2])

	case "generate":
		if len(os.Args) < 4 {
			usage()
		}
		runGenerate(ctx, log, issuer, generator, profiles, cfg.Remittance.OutputDir, os.Args[2], os.Args[3])

	default:
		usage()
	}
}

func runIssue(ctx context.Context, log logger.Logger, issuer *instrument.Service, dueDays int, owner, bankCode, requestFile string) {
	ownerID := mustUUID(log, owner)

	data, err := os.ReadFile(requestFile)
	if err != nil {
		log.Fatal("Failed to read request file", map[string]interface{}{"error": err.Error()})
	}
	var requests []domain.InstrumentRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		log.Fatal("Failed to parse request file", map[string]interface{}{"error": err.Error()})
	}
	for i := range requests {
		if requests[i].DueDate.IsZero() {
			requests[i].DueDate = time.Now().AddDate(0, 0, dueDays)
		}
	}

	issued, err := issuer.Issue(ctx, ownerID, bankCode, requests)
	if err != nil {
		log.Fatal("Failed to issue instruments", map[string]interface{}{"error": err.Error()})
	}

	for _, inst := range issued {
		fmt.Printf("%s  %s  %s\n", inst.ID, inst.DigitableLine, inst.Amount.StringFixed(2))
	}
	log.Info("Instruments issued", map[string]interface{}{"count": len(issued)})
}

func runApprove(ctx context.Context, log logger.Logger, issuer *instrument.Service, id string) {
	inst, err := issuer.Approve(ctx, mustUUID(log, id))
	if err != nil {
		log.Fatal("Failed to approve instrument", map[string]interface{}{"error": err.Error()})
	}
	log.Info("Instrument approved", map[string]interface{}{"instrument_id": inst.ID.String()})
}

func runGenerate(
	ctx context.Context,
	log logger.Logger,
	issuer *instrument.Service,
	generator *remittance.Service,
	profiles *postgres.BankProfileRepository,
	outputDir, owner, bankCode string,
) {
	ownerID := mustUUID(log, owner)

	profile, err := profiles.FindByOwnerAndBank(ctx, ownerID, bankCode)
	if err != nil {
		log.Fatal("Failed to load bank profile", map[string]interface{}{"error": err.Error()})
	}
	approved, err := issuer.ListApproved(ctx, ownerID, bankCode)
	if err != nil {
		log.Fatal("Failed to list approved instruments", map[string]interface{}{"error": err.Error()})
	}

	batch, err := generator.Generate(ctx, profile, approved)
	if err != nil {
		log.Fatal("Failed to generate remittance file", map[string]interface{}{"error": err.Error()})
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatal("Failed to create output directory", map[string]interface{}{"error": err.Error()})
	}
	path := filepath.Join(outputDir, batch.Filename)
	if err := os.WriteFile(path, batch.Content, 0o644); err != nil {
		log.Fatal("Failed to write remittance file", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Remittance file written", map[string]interface{}{
		"path":        path,
		"records":     batch.RecordCount,
		"instruments": len(batch.InstrumentIDs),
	})
	fmt.Println(path)
}

func mustUUID(log logger.Logger, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		log.Fatal("Invalid UUID argument", map[string]interface{}{"value": s})
	}
	return id
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  remessa issue <owner-id> <bank-code> <requests.json>
  remessa approve <instrument-id>
  remessa generate <owner-id> <bank-code>`)
	os.Exit(2)
}
