// ABOUTME: MCP server subcommand
// ABOUTME: Serves normalization and planning tools plus merge history over stdio
package cli

import (
	"context"

	"github.com/harperreed/contactmerge/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer builds the server with every tool, resource and prompt registered.
func NewMCPServer(env *Env, version string) *mcp.Server {
	mergeHandlers := handlers.NewMergeHandlers(env.config().Engine())
	resourceHandlers := handlers.NewResourceHandlers(env.DB)
	promptHandlers := handlers.NewPromptHandlers(env.DB)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "contactmerge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "normalize_phone",
		Description: "Normalize a phone number to its international form (French national numbers get +33)",
	}, mergeHandlers.NormalizePhone)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "normalize_address",
		Description: "Reduce a postal address to its comparison form (lowercase, no accents, no stop words)",
	}, mergeHandlers.NormalizeAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "identity_key",
		Description: "Compute the identity fingerprint (email, phone, name or organization) used to group duplicates",
	}, mergeHandlers.IdentityKey)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan_merge",
		Description: "Group a list of contacts by identity and return the merge plan for every group, optionally as a DOT graph",
	}, mergeHandlers.PlanMerge)

	server.AddResource(&mcp.Resource{
		URI:         handlers.RunsURI,
		Name:        "merge-runs",
		Description: "Recent merge runs with their counters and status",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.RunsURI + "/{run_id}",
		Name:        "merge-run",
		Description: "One merge run and every merge it recorded",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        handlers.ReviewRunPrompt,
		Description: "Review what a merge run did and flag suspicious merges",
		Arguments: []*mcp.PromptArgument{
			{Name: "run_id", Description: "Run to review (defaults to the latest)"},
		},
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, env *Env, version string) error {
	env.logger().Info("starting MCP server")
	return NewMCPServer(env, version).Run(ctx, &mcp.StdioTransport{})
}
