package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/engine"
	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/internal/session"
)

var (
	registry = caps.Default()
	eng      = engine.New(registry)
	policy   = sandbox.NewPolicy(registry.Names())

	// Named sessions keep variables across calls for the lifetime of
	// the server process.
	sessionsMu sync.Mutex
	sessions   = map[string]*session.Session{}
)

func main() {
	s := server.NewMCPServer("crucible-snippet-runner", "0.1.0")

	s.AddTool(mcp.Tool{
		Name: "snippet_run",
		Description: fmt.Sprintf(
			"Run a snippet against the Crucible evaluator. Imports are limited to: %s. "+
				"Pass the same 'session' name across calls to keep variables between runs.",
			strings.Join(registry.Names(), ", ")),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"source": map[string]any{
					"type":        "string",
					"description": "Snippet source to execute",
				},
				"session": map[string]any{
					"type":        "string",
					"description": "Session name for variable persistence (optional; default is a shared session)",
				},
			},
			Required: []string{"source"},
		},
	}, handleSnippetRun)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("server error: %v\n", err)
	}
}

func getSession(name string) *session.Session {
	if name == "" {
		name = "default"
	}
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	sess, ok := sessions[name]
	if !ok {
		sess = session.New(name)
		sessions[name] = sess
	}
	return sess
}

func handleSnippetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	source, _ := args["source"].(string)
	sessionName, _ := args["session"].(string)

	if source == "" {
		return errResult("error: 'source' is required"), nil
	}

	sess := getSession(sessionName)
	verdict, rec := sess.Submit(policy, eng, source)
	if !verdict.Allowed {
		return errResult("rejected: " + verdict.Reason), nil
	}

	var output strings.Builder
	if rec.Success {
		output.WriteString(rec.Output)
	} else {
		output.WriteString(rec.Trace)
	}
	for _, fig := range rec.Figures {
		label := fig.Kind
		if fig.Title != "" {
			label = fmt.Sprintf("%s: %s", fig.Kind, fig.Title)
		}
		output.WriteString(fmt.Sprintf("\n[figure %d - %s, %d points]", fig.Seq, label, len(fig.Y)))
	}

	text := output.String()
	if len(text) > 4000 {
		text = text[:4000] + "\n... (output truncated)"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: !rec.Success,
	}, nil
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
