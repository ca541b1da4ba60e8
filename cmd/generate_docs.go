package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/config"
	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/teams"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// toolCategory is one registration group and the tools it registered.
type toolCategory struct {
	name  string
	tools []mcp.Tool
}

func runGenerateDocs(outputFile string) error {
	categories, err := collectTools()
	if err != nil {
		return err
	}
	markdown := generateToolsMarkdown(categories)

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// collectTools registers every group, in write mode, on its own server so
// each tool lands in the category that registered it. No user is signed in
// and nothing is contacted.
func collectTools() ([]toolCategory, error) {
	serverContext, err := server.NewServerContext(context.Background(), server.Options{
		Config: config.Config{
			APIURL:        gateway.DefaultBaseURL,
			UserCacheSize: teams.DefaultUserCacheSize,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	categories := make([]toolCategory, 0, len(toolRegistrations))
	for _, reg := range toolRegistrations {
		mcpSrv := mcpserver.NewMCPServer("planner", version,
			mcpserver.WithToolCapabilities(true),
		)
		if err := reg.register(mcpSrv, serverContext, false); err != nil {
			return nil, fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}

		serverTools := mcpSrv.ListTools()
		tools := make([]mcp.Tool, 0, len(serverTools))
		for _, serverTool := range serverTools {
			tools = append(tools, serverTool.Tool)
		}
		sort.Slice(tools, func(i, j int) bool {
			return tools[i].Name < tools[j].Name
		})
		categories = append(categories, toolCategory{name: reg.name + " Tools", tools: tools})
	}
	return categories, nil
}

func generateToolsMarkdown(categories []toolCategory) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running planner as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category.name, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category.name, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Read-Only Mode\n\n")
	sb.WriteString("Without `--yolo` only tools that do not change data on the server are registered: ")
	sb.WriteString("listing, status, session and scope selection tools.\n\n")

	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("## %s\n\n", category.name))
		for _, tool := range category.tools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	// Tool name
	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	// Description
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Sort properties for consistent output
		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
			if !ok {
				continue
			}

			requiredStr := "optional"
			if contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}
			propType := getPropertyType(propMap)

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, propType, requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", propType))
			}
			if values := enumValues(propMap); len(values) > 0 {
				sb.WriteString(fmt.Sprintf(" One of: `%s`.", strings.Join(values, "`, `")))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

// enumValues returns the allowed string values of a property, if any.
func enumValues(prop map[string]interface{}) []string {
	switch values := prop["enum"].(type) {
	case []string:
		return values
	case []interface{}:
		out := make([]string, 0, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
