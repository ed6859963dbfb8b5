package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

var (
	queryTopK      int
	queryThreshold float64
	queryCategory  string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the knowledge base",
	Long: `Embeds the query and returns the most relevant document chunks.
The search metric is detected from the collection, so scores are always
interpreted correctly regardless of how the collection was created.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversational retrieval",
	Long: `Starts an interactive session. Follow-up questions are rewritten
using the conversation so far, so elliptical queries like "what about
passwords?" retrieve against their full meaning.`,
	RunE: runChat,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "n", 0, "maximum number of results")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", 0, "relevance score cutoff")
	queryCmd.Flags().StringVarP(&queryCategory, "category", "c", "", "restrict results to a category")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(chatCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("retrieval service not configured")
	}

	query := args[0]
	conversation := []domain.ConversationTurn{{Role: domain.RoleUser, Content: query}}

	opts := retrieveOptions(cmd)
	opts.Category = queryCategory
	results, err := retriever.Retrieve(context.Background(), query, conversation, opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputResultsJSON(cmd, results)
	}
	outputResults(cmd, results)
	return nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	if retriever == nil {
		return errors.New("retrieval service not configured")
	}

	cmd.Println("Interactive retrieval. Empty line or Ctrl-D to quit.")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var conversation []domain.ConversationTurn

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			break
		}

		conversation = append(conversation, domain.ConversationTurn{
			Role:    domain.RoleUser,
			Content: query,
		})

		results, err := retriever.Retrieve(context.Background(), query, conversation, retrieveOptions(cmd))
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			continue
		}

		outputResults(cmd, results)

		// The top result stands in for an assistant answer so follow-up
		// rewrites have something to anchor on.
		if len(results) > 0 {
			conversation = append(conversation, domain.ConversationTurn{
				Role:    domain.RoleAssistant,
				Content: results[0].Content,
			})
		}
	}
	return scanner.Err()
}

// retrieveOptions merges the query flags with configured defaults. The
// changed-flag check lets an explicit zero through: under a distance-bound
// metric a threshold of 0 is a real cutoff, not "unset".
func retrieveOptions(cmd *cobra.Command) domain.RetrieveOptions {
	opts := domain.RetrieveOptions{
		TopK:               retrievalDefaults.TopK,
		RelevanceThreshold: retrievalDefaults.RelevanceThreshold,
	}
	if cmd.Flags().Changed("top-k") {
		opts.TopK = queryTopK
	}
	if cmd.Flags().Changed("threshold") {
		opts.RelevanceThreshold = queryThreshold
	}
	return opts
}

func outputResults(cmd *cobra.Command, results []domain.RetrievedChunk) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Title
		if title == "" {
			title = results[i].DocumentID
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, results[i].Score)
		if results[i].Category != "" {
			cmd.Printf("      Category: %s\n", results[i].Category)
		}
		cmd.Printf("      %s\n", snippet(results[i].Content))
		cmd.Println()
	}
}

func outputResultsJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// snippet truncates chunk content for table output.
func snippet(content string) string {
	const maxLen = 160
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}
