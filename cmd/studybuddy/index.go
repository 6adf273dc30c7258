package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	indexNamespace string
	indexQuery     string
	indexTopK      int
)

var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Chunk and index a document, optionally querying it",
	Long: `Index splits a text document into chunks, embeds them and stores them in
the configured vector store (VECTOR_STORE=memory or pinecone). With --query
the most relevant chunks are printed. The index is dropped on exit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		namespace := indexNamespace
		if namespace == "" {
			namespace = uuid.NewString()
		}

		s, err := application.Session(ctx, namespace)
		if err != nil {
			return err
		}
		defer s.Close(context.WithoutCancel(ctx))

		out := cmd.OutOrStdout()
		c := &chat{session: s, r: newRenderer(out, isTerminal(out))}
		if err := c.upload(ctx, args[0]); err != nil {
			return err
		}
		if indexQuery == "" {
			return nil
		}

		found, err := s.Search(ctx, indexQuery, indexTopK)
		if err != nil {
			return err
		}
		if found == "" {
			c.r.Printf("No indexed content matched %q\n", indexQuery)
			return nil
		}
		c.r.Markdown(found)
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexNamespace, "namespace", "", "Vector store namespace (default: random)")
	indexCmd.Flags().StringVarP(&indexQuery, "query", "q", "", "Search the indexed document")
	indexCmd.Flags().IntVarP(&indexTopK, "top-k", "k", 3, "Number of chunks to return for --query")
}
