package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show sync status for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}

	state, err := syncEngine.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}

	cmd.Printf("Document: %s\n", state.DocumentID)
	cmd.Printf("Phase:    %s\n", state.Phase)
	switch state.Phase {
	case domain.SyncPhaseSynced, domain.SyncPhaseStale:
		cmd.Printf("Vectors:  %d\n", len(state.VectorIDs))
		cmd.Printf("Synced:   %s\n", state.LastSyncedAt.Format("2006-01-02 15:04:05"))
		if state.Phase == domain.SyncPhaseStale {
			cmd.Println("Content has changed since the last sync. Run 'kbsync sync' to update.")
		}
	case domain.SyncPhaseFailed:
		cmd.Printf("Error:    %s\n", state.SyncError)
		if len(state.VectorIDs) > 0 {
			cmd.Printf("Vectors:  %d (from the previous successful sync)\n", len(state.VectorIDs))
		}
	}
	return nil
}
