package mcp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/martinsuchenak/vlanaudit/internal/audit"
	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/martinsuchenak/vlanaudit/internal/parser"
	"github.com/martinsuchenak/vlanaudit/pkg/model"
	"github.com/paularlott/mcp"
)

// Server wraps the MCP server with the audit pipeline
type Server struct {
	mcpServer   *mcp.Server
	auditor     *audit.Auditor
	bearerToken string
	version     string
}

// NewServer creates a new MCP server exposing the audit tools
func NewServer(auditor *audit.Auditor, bearerToken, version string) *Server {
	s := &Server{
		mcpServer:   mcp.NewServer("vlanaudit", version),
		auditor:     auditor,
		bearerToken: bearerToken,
		version:     version,
	}
	s.registerTools()
	return s
}

// registerTools registers the audit and parse tools
func (s *Server) registerTools() {
	// vlan_audit - run the full pipeline
	s.mcpServer.RegisterTool(
		mcp.NewTool("vlan_audit", "Audit which VPC paths allow an endpoint's VLAN and return the remediation CSV for the paths that are missing it",
			mcp.String("endpoint_output", "Raw output of the controller endpoint lookup (show endpoint ip <ip>)", mcp.Required()),
			mcp.String("moquery_output", "Raw output of moquery -c fvRsPathAtt", mcp.Required()),
			mcp.String("epg", "EPG name for the CSV rows (derived from the attachments when omitted)"),
			mcp.String("vlan", "VLAN for the CSV rows (the endpoint VLAN when omitted)"),
			mcp.String("name", "Audit name"),
		),
		s.handleAudit,
	)

	// parse_endpoint_output - endpoint extraction only
	s.mcpServer.RegisterTool(
		mcp.NewTool("parse_endpoint_output", "Extract the VLAN, pod and VPC paths of an endpoint from controller output",
			mcp.String("text", "Raw endpoint lookup output", mcp.Required()),
		),
		s.handleParseEndpoint,
	)

	// parse_moquery_output - attachment extraction only
	s.mcpServer.RegisterTool(
		mcp.NewTool("parse_moquery_output", "List the VLAN-tagged path attachments found in moquery output",
			mcp.String("text", "Raw moquery -c fvRsPathAtt output", mcp.Required()),
		),
		s.handleParseMoquery,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request invalid Authorization format", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid Authorization format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.bearerToken)) != 1 {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		log.Debug("MCP request authenticated successfully")
	}

	s.mcpServer.HandleRequest(w, r)
}

func (s *Server) handleAudit(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	endpointOutput, err := req.String("endpoint_output")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("endpoint_output is required: " + err.Error())
	}
	moqueryOutput, err := req.String("moquery_output")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("moquery_output is required: " + err.Error())
	}

	rep, err := s.auditor.Run(ctx, model.AuditRequest{
		Name:           req.StringOr("name", ""),
		EndpointOutput: endpointOutput,
		MoqueryOutput:  moqueryOutput,
		EPG:            req.StringOr("epg", ""),
		VLAN:           req.StringOr("vlan", ""),
	})
	if err != nil {
		if errors.Is(err, audit.ErrEmptyInput) || errors.Is(err, audit.ErrEndpointNotFound) {
			log.Warn("MCP audit rejected", "error", err)
			return nil, mcp.NewToolErrorInvalidParams(err.Error())
		}
		log.Error("MCP audit failed", "error", err)
		return nil, mcp.NewToolErrorInternal("audit failed: " + err.Error())
	}

	return mcp.NewToolResponseText(formatReport(rep)), nil
}

func (s *Server) handleParseEndpoint(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	text, err := req.String("text")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("text is required: " + err.Error())
	}

	record, ok := parser.ParseEndpointOutput(text)
	if !ok {
		return mcp.NewToolResponseText("No endpoint with a VLAN and VPC path found"), nil
	}
	return mcp.NewToolResponseText(formatEndpoint(record)), nil
}

func (s *Server) handleParseMoquery(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	text, err := req.String("text")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("text is required: " + err.Error())
	}

	return mcp.NewToolResponseText(formatAttachments(parser.ParseMoqueryOutput(text))), nil
}

func formatEndpoint(record *model.EndpointRecord) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("VLAN: %s\n", record.VLAN))
	result.WriteString(fmt.Sprintf("Pod: %s\n", record.Pod))
	if record.IP != "" {
		result.WriteString(fmt.Sprintf("IP: %s\n", record.IP))
	}
	result.WriteString("Paths:\n")
	for _, p := range record.Paths {
		result.WriteString(fmt.Sprintf("  - %s\n", p))
	}
	return result.String()
}

func formatAttachments(attachments []model.PathAttachment) string {
	if len(attachments) == 0 {
		return "No VLAN-tagged path attachments found"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d path attachment(s):\n\n", len(attachments)))
	for _, a := range attachments {
		result.WriteString(fmt.Sprintf("- VLAN %s  EPG %s  %s (%s)\n", a.VLAN, a.EPG, a.FullPath, a.Kind))
	}
	return result.String()
}

func formatReport(rep *model.AuditReport) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Audit: %s\n", rep.Name))
	result.WriteString(fmt.Sprintf("VLAN: %s\n", rep.VLAN))
	if rep.EPG != "" {
		result.WriteString(fmt.Sprintf("EPG: %s\n", rep.EPG))
	}
	result.WriteString(fmt.Sprintf("Pod: %s\n", rep.Endpoint.Pod))
	result.WriteString(fmt.Sprintf("Paths: %d allowed, %d not allowed\n", rep.AllowedCount, rep.NotAllowedCount))
	for _, res := range rep.Results {
		result.WriteString(fmt.Sprintf("  - %s: %s\n", res.Path, res.Status))
	}
	result.WriteString("\n")
	result.WriteString(rep.CSV)
	result.WriteString("\n")
	return result.String()
}

// GetHTTPHandler returns the HTTP handler for the MCP server
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}

// LogStartup logs MCP server startup information
func (s *Server) LogStartup() {
	log.Info("MCP Server initialized", "version", s.version)
	if s.bearerToken != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
	for _, tool := range tools {
		log.Debug("MCP tool registered", "name", tool.Name, "description", tool.Description)
	}
}
