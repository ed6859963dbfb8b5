package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [doc-id]",
	Short: "Synchronise documents into the vector index",
	Long: `Chunks, embeds, and upserts documents into the vector index.
If a document ID is provided, only that document is synchronised.
Otherwise, all documents are synchronised.

Unchanged documents are skipped. Updates replace old vectors only after
the new ones are written, so the document never disappears from search.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		documentID := args[0]
		cmd.Printf("Synchronising document: %s...\n", documentID)

		result, err := syncEngine.SyncDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if result.Skipped {
			cmd.Printf("Skipped: %s\n", result.SkipReason)
			return nil
		}
		cmd.Printf("Document %s synchronised (%d chunks).\n", documentID, result.ChunkCount)
		return nil
	}

	cmd.Println("Synchronising all documents...")
	if err := syncEngine.SyncAll(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	cmd.Println("All documents synchronised successfully.")
	return nil
}
