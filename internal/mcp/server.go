// Package mcp exposes read-only regulatory intelligence over the Model
// Context Protocol so external agents can query the catalog.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/finsentsis/internal/adapter/catalog"
	"github.com/arturoeanton/finsentsis/internal/compliance"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
type Server struct {
	catalog *catalog.Catalog
	port    string
	version string
}

// NewServer creates a new MCP server.
func NewServer(cat *catalog.Catalog, port string) *Server {
	return &Server{catalog: cat, port: port, version: "1.0.0"}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler returns the HTTP routes served by the MCP server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)
	return mux
}

// Run serves MCP on the configured port until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("MCP server starting", "port", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "finsentsis",
				"version": s.version,
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	flusher.Flush()

	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "search_regulations",
			Description: "Search the regulatory catalog by title or region, optionally scoped to an organization profile",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Case-insensitive title or region fragment"},
					"regions": {"type": "array", "items": {"type": "string"}, "description": "Operating regions: na, eu, apac, latam"},
					"sector": {"type": "string", "description": "Industry sector: finance, health, mfg, tech, retail, energy"}
				}
			}`),
		},
		{
			Name:        "dashboard_summary",
			Description: "Count relevant regulations and remediation tasks, open critical and high tasks, estimated penalty exposure and alerts for an organization profile",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"company_name": {"type": "string"},
					"regions": {"type": "array", "items": {"type": "string"}},
					"sector": {"type": "string"}
				},
				"required": ["regions", "sector"]
			}`),
		},
		{
			Name:        "list_policies",
			Description: "List the internal policy library",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

type profileArgs struct {
	CompanyName string   `json:"company_name"`
	Regions     []string `json:"regions"`
	Sector      string   `json:"sector"`
}

// profile returns nil when no scoping was requested.
func (a profileArgs) profile() (*domain.UserProfile, error) {
	if len(a.Regions) == 0 && a.Sector == "" {
		return nil, nil
	}
	name := strings.TrimSpace(a.CompanyName)
	if name == "" {
		name = "MCP client"
	}
	return service.NormalizeProfile(domain.UserProfile{
		CompanyName: name,
		Regions:     a.Regions,
		Sector:      a.Sector,
	})
}

func (s *Server) callTool(params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "search_regulations":
		var args struct {
			profileArgs
			Query string `json:"query"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		profile, err := args.profile()
		if err != nil {
			return nil, err
		}
		view := compliance.Filter(profile, s.catalog.Regulations, nil)
		regs := compliance.Search(view.Regulations, args.Query)

		titles := make([]string, len(regs))
		for i, r := range regs {
			titles[i] = fmt.Sprintf("%s: %s (%s, %s risk)", r.ID, r.Title, r.Region, r.RiskLevel)
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("%d regulations found\n%s", len(regs), strings.Join(titles, "\n"))},
			},
			"regulations": regs,
		}, nil

	case "dashboard_summary":
		var args profileArgs
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		profile, err := args.profile()
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, errors.New("regions and sector are required")
		}
		view := compliance.Filter(profile, s.catalog.Regulations, s.catalog.SeedTasks())
		dash := service.Summarize(view, profile, s.catalog)
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("%d open critical, %d open high, %d regulations and %d remediation tasks in scope, estimated penalty $%.0f",
					dash.Metrics.OpenCritical, dash.Metrics.OpenHigh, dash.Regulations, dash.Tasks, dash.Metrics.EstimatedPenalty)},
			},
			"dashboard": dash,
		}, nil

	case "list_policies":
		names := make([]string, len(s.catalog.Policies))
		for i, p := range s.catalog.Policies {
			names[i] = p.Name
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": strings.Join(names, "\n")},
			},
			"policies": s.catalog.Policies,
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func decodeArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
