package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/formforge/formforge/internal/config"
	"github.com/formforge/formforge/internal/server"
	"github.com/formforge/formforge/internal/store"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("FORMFORGE_CONFIG")
	if cfgPath == "" {
		cfgPath = "formforge.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.Server.DSN)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)

	// SQLite leaves foreign keys off unless asked.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		log.Fatalf("enabling foreign keys: %v", err)
	}

	st := store.NewSQLiteStore(db)
	if err := st.CreateTables(ctx); err != nil {
		log.Fatalf("running schema migration: %v", err)
	}
	log.Println("database migrated successfully")

	if err := server.Run(ctx, server.Config{
		Port:           cfg.Server.Port,
		Store:          st,
		AllowedClasses: cfg.Fields.AllowedExtraClasses,
		Editors:        cfg.Server.Editors,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
