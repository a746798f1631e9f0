// Package sync reconciles configured card sources against the card store:
// new cards are inserted with default scheduling state, cards that vanished
// from their source are deleted, everything else keeps its review state.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/retain-app/retain/internal/cardhash"
	"github.com/retain-app/retain/internal/gitsource"
	"github.com/retain-app/retain/internal/parser"
	"github.com/retain-app/retain/internal/storage"
)

// DetectType classifies a source path as "git" or "local".
func DetectType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return "git"
	}
	return "local"
}

// RunSync iterates over all sources and reconciles them. Per-source failures
// are logged and skipped so one broken source cannot block the rest.
func RunSync(db *storage.DB, reposDir string) error {
	slog.Info("starting sync for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured, add one with --add-source <path/or/url.git>")
		return nil
	}

	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		sourceToReconcile := source

		switch source.Type {
		case "git":
			localRepoPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("cannot determine local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("git sync failed", "url", source.Path, "error", err)
				continue
			}
			sourceToReconcile.Path = localRepoPath
			reconcileLocalSource(db, &sourceToReconcile, time.Now())

		default:
			reconcileLocalSource(db, &sourceToReconcile, time.Now())
		}
	}
	slog.Info("sync complete")
	return nil
}

func reconcileLocalSource(db *storage.DB, source *storage.Source, now time.Time) {
	var parsedCards int
	var reconcileErrors []error
	foundCardHashes := make(map[string]bool)

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileCards, parseErr := parser.ParseFile(path, now)
		if parseErr != nil {
			reconcileErrors = append(reconcileErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range fileCards {
			card.Hash = cardhash.Hash(card)
			parsedCards++
			foundCardHashes[card.Hash] = true

			existingCard, findErr := db.FindCardByHash(card.Hash)
			if findErr != nil {
				reconcileErrors = append(reconcileErrors, fmt.Errorf("db check for %s: %w", card.Hash, findErr))
				continue
			}
			if existingCard == nil {
				slog.Info("new card found, inserting", "hash", card.Hash)
				if insertErr := db.InsertCard(card, source.ID); insertErr != nil {
					reconcileErrors = append(reconcileErrors, fmt.Errorf("db insert for %s: %w", card.Hash, insertErr))
				}
			}
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("error walking directory", "path", source.Path, "error", walkErr)
		return
	}

	dbCards, err := db.GetCardsBySourceID(source.ID)
	if err != nil {
		slog.Error("error getting cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphanedCards int
	for _, dbCard := range dbCards {
		if !foundCardHashes[dbCard.Hash] {
			slog.Info("orphaned card, deleting", "hash", dbCard.Hash)
			orphanedCards++
			if err := db.DeleteCardByHash(dbCard.Hash); err != nil {
				slog.Warn("failed to delete orphaned card", "hash", dbCard.Hash, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_cards", parsedCards,
		"orphaned_deleted", orphanedCards,
		"errors", len(reconcileErrors),
	)
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-style syntax: git@host:user/repo.git
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
