package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage source documents",
	Long:  `Add, view, list, or remove documents in the knowledge base.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [doc-id]",
	Short: "Add or update a document",
	Long: `Adds a document to the knowledge base, or updates it if the ID exists.

Content is read from --file, or from stdin when no file is given. Only
documents that are both approved and security-reviewed are indexed by sync.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentAdd,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	RunE:  runDocumentList,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document and its vectors",
	Long: `Deletes the document from the knowledge base and removes all its
vectors from the index in the same operation.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentRemove,
}

var (
	addTitle     string
	addCategory  string
	addTags      []string
	addFile      string
	addApproved  bool
	addReviewed  bool
	listCategory string
)

func init() {
	documentAddCmd.Flags().StringVarP(&addTitle, "title", "t", "", "document title")
	documentAddCmd.Flags().StringVarP(&addCategory, "category", "c", "", "document category")
	documentAddCmd.Flags().StringSliceVar(&addTags, "tags", nil, "comma-separated tags")
	documentAddCmd.Flags().StringVarP(&addFile, "file", "f", "", "read content from file instead of stdin")
	documentAddCmd.Flags().BoolVar(&addApproved, "approved", false, "mark the document as approved for indexing")
	documentAddCmd.Flags().BoolVar(&addReviewed, "reviewed", false, "mark the document as security reviewed")
	documentListCmd.Flags().StringVarP(&listCategory, "category", "c", "", "filter by category")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	content, err := readContent(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: document content is empty", domain.ErrEmptyContent)
	}

	doc := &domain.SourceDocument{
		ID:               args[0],
		Title:            addTitle,
		Content:          content,
		Category:         addCategory,
		Tags:             addTags,
		IsApproved:       addApproved,
		SecurityReviewed: addReviewed,
	}

	if err := documentStore.Save(context.Background(), doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	cmd.Printf("Document %s saved.\n", doc.ID)
	if !doc.Indexable() {
		cmd.Println("Note: the document will be skipped by sync until it is --approved and --reviewed.")
	}
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	doc, err := documentStore.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}

	cmd.Printf("ID:       %s\n", doc.ID)
	cmd.Printf("Title:    %s\n", doc.Title)
	cmd.Printf("Category: %s\n", doc.Category)
	if len(doc.Tags) > 0 {
		cmd.Printf("Tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	cmd.Printf("Approved: %t  Reviewed: %t  Indexable: %t\n",
		doc.IsApproved, doc.SecurityReviewed, doc.Indexable())
	cmd.Printf("Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	cmd.Println()
	cmd.Println(doc.Content)
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	docs, err := documentStore.List(context.Background(), listCategory)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		marker := " "
		if docs[i].Indexable() {
			marker = "*"
		}
		title := docs[i].Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("%s %s  %s", marker, docs[i].ID, title)
		if docs[i].Category != "" {
			cmd.Printf("  [%s]", docs[i].Category)
		}
		cmd.Println()
	}
	cmd.Println()
	cmd.Println("* = approved and security reviewed (indexable)")
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}

	result, err := syncEngine.DeleteDocument(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("removing document: %w", err)
	}

	cmd.Printf("Document %s removed (%d vectors deleted).\n",
		result.DocumentID, result.VectorsDeleted)
	return nil
}

// readContent reads document content from --file or stdin.
func readContent(cmd *cobra.Command) (string, error) {
	if addFile != "" {
		data, err := os.ReadFile(addFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", addFile, err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
