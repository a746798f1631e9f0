package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/retain-app/retain/internal/config"
	"github.com/retain-app/retain/internal/storage"
	"github.com/retain-app/retain/internal/sync"
	"github.com/retain-app/retain/internal/web"
)

func main() {
	flags := config.Flags()
	addSource := flags.String("add-source", "", "Register a card source (local path or git URL)")
	runSync := flags.Bool("sync", false, "Reconcile all sources before doing anything else")
	serve := flags.Bool("serve", false, "Start the web UI")

	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if *addSource != "" {
		if err := registerSource(db, *addSource); err != nil {
			log.Fatalf("Failed to add source: %v", err)
		}
	}

	if *runSync {
		if err := sync.RunSync(db, cfg.ReposDir); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
	}

	if *serve {
		server := web.NewServer(db, cfg.ReposDir)
		slog.Info("starting web UI", "addr", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
		return
	}

	if *addSource == "" && !*runSync {
		flags.PrintDefaults()
	}
}

func registerSource(db *storage.DB, path string) error {
	existing, err := db.FindSourceByPath(path)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("source already registered: %s", path)
	}

	sourceType := sync.DetectType(path)
	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		return err
	}
	slog.Info("source registered", "id", id, "type", sourceType, "path", path)
	return nil
}
