package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/database"
	"github.com/ArowuTest/loyaltybot-backend/internal/logging"
	"github.com/ArowuTest/loyaltybot-backend/internal/services"
	"github.com/ArowuTest/loyaltybot-backend/internal/utils"
)

// import_csv loads accounts from a CSV export, or prints the bcrypt hash of
// an operator secret for LOYALTY_ADMIN_SECRETHASH.
func main() {
	hashSecret := flag.String("hash-secret", "", "print the bcrypt hash of this operator secret and exit")
	flag.Parse()

	if *hashSecret != "" {
		hash, err := services.HashSecret(*hashSecret)
		if err != nil {
			log.Fatalf("Failed to hash secret: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if flag.NArg() < 1 {
		log.Fatal("CSV file path is required as a command line argument")
	}
	csvFilePath := flag.Arg(0)

	cfg, err := config.Load(config.SearchPaths()...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open datastore", zap.Error(err))
	}
	defer store.Close(ctx)

	file, err := os.Open(csvFilePath)
	if err != nil {
		logger.Fatal("Failed to open CSV file", zap.String("path", csvFilePath), zap.Error(err))
	}
	defer file.Close()

	admin := services.NewAdminService(services.Options{Store: store, Points: cfg.Points, Logger: logger}, cfg.Maintenance.BackupDir)
	result, err := utils.NewCSVImporter(admin).ImportAccounts(ctx, file)
	if err != nil {
		logger.Fatal("Failed to import data", zap.Error(err))
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	logger.Info("Data imported",
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)
}
