package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haulwire/loadscout/internal/app"
	"github.com/haulwire/loadscout/internal/models"
)

// seedInbound stores every .eml file in dir as a raw payload and enqueues it,
// using the file name (without extension) as the message id. Re-running is
// safe: Enqueue is idempotent on message id.
func seedInbound(application *app.App, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading seed directory: %w", err)
	}

	ctx := context.Background()
	queued := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".eml") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			application.Logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable seed file")
			continue
		}

		messageID := strings.TrimSuffix(entry.Name(), ".eml")
		if err := application.BlobStore.Put(ctx, "inbound", entry.Name(), raw); err != nil {
			return fmt.Errorf("storing payload %s: %w", entry.Name(), err)
		}
		if err := application.StorageManager.QueueStorage().Enqueue(ctx, &models.QueueItem{
			MessageID:  messageID,
			BlobBucket: "inbound",
			BlobPath:   entry.Name(),
		}); err != nil {
			return fmt.Errorf("enqueueing %s: %w", messageID, err)
		}
		queued++
	}

	application.Logger.Info().Int("queued", queued).Str("dir", dir).Msg("Inbound seed complete")
	return nil
}
