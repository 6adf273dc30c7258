package main

import (
	"context"

	"studybuddy/mcpserver"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpDocument string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the study tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := application.Session(ctx, uuid.NewString())
		if err != nil {
			return err
		}
		defer s.Close(context.WithoutCancel(ctx))

		if mcpDocument != "" {
			text, err := readDocument(mcpDocument)
			if err != nil {
				return err
			}
			status, err := s.UploadDocument(ctx, text)
			if err != nil {
				return err
			}
			zap.S().Infof("Loaded %s: %s", mcpDocument, status)
		}

		zap.S().Infof("Starting MCP server on stdio")
		return mcpserver.New(s).Run(ctx, &mcp.StdioTransport{})
	},
}

func init() {
	mcpCmd.Flags().StringVarP(&mcpDocument, "document", "d", "", "Text document to study from")
}
