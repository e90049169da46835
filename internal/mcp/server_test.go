package mcp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/martinsuchenak/vlanaudit/internal/audit"
	"github.com/martinsuchenak/vlanaudit/pkg/model"
)

func TestServer_ToolsRegistered(t *testing.T) {
	s := NewServer(audit.NewAuditor(), "", "test")

	want := map[string]bool{"vlan_audit": false, "parse_endpoint_output": false, "parse_moquery_output": false}
	for _, tool := range s.mcpServer.ListTools() {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected tool %s to be registered", name)
		}
	}
}

func TestServer_HandleRequest_Auth(t *testing.T) {
	s := NewServer(audit.NewAuditor(), "secret-token", "test")

	tests := []struct {
		name       string
		authHeader string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic secret-token"},
		{"wrong token", "Bearer nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/mcp", strings.NewReader(`{}`))
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			s.GetHTTPHandler()(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestFormatReport(t *testing.T) {
	rep := &model.AuditReport{
		Name:            "vlan105-disallowed",
		VLAN:            "105",
		EPG:             "VLAN105_EPG",
		Endpoint:        &model.EndpointRecord{VLAN: "105", Pod: model.Pod2},
		AllowedCount:    1,
		NotAllowedCount: 1,
		Results: []model.ValidationResult{
			{Path: "101-102-VPC-1-PG", Status: model.StatusAllowed},
			{Path: "201-202-VPC-1-PG", Status: model.StatusNotAllowed},
		},
		CSV: "VLAN,EPG,PATH\n105,VLAN105_EPG,pod-2/protpaths-201-202/pathep-[201-202-VPC-1-PG]",
	}

	out := formatReport(rep)

	for _, want := range []string{
		"VLAN: 105",
		"EPG: VLAN105_EPG",
		"Pod: pod-2",
		"1 allowed, 1 not allowed",
		"201-202-VPC-1-PG: not_allowed",
		"105,VLAN105_EPG,pod-2/protpaths-201-202/pathep-[201-202-VPC-1-PG]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatAttachments(t *testing.T) {
	if got := formatAttachments(nil); !strings.Contains(got, "No VLAN-tagged") {
		t.Errorf("Unexpected empty output %q", got)
	}

	got := formatAttachments([]model.PathAttachment{{
		VLAN: "105", EPG: "VLAN105_EPG", FullPath: "pod-1/paths-301/pathep-[eth1/1]", Kind: model.PathKindSingle,
	}})
	if !strings.Contains(got, "Found 1 path attachment") || !strings.Contains(got, "pod-1/paths-301/pathep-[eth1/1] (single)") {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestFormatEndpoint(t *testing.T) {
	got := formatEndpoint(&model.EndpointRecord{VLAN: "105", Pod: model.Pod1, Paths: []string{"101-102-VPC-1-PG"}})
	if !strings.Contains(got, "VLAN: 105") || !strings.Contains(got, "- 101-102-VPC-1-PG") {
		t.Errorf("Unexpected output %q", got)
	}
	if strings.Contains(got, "IP:") {
		t.Errorf("Expected no IP line, got %q", got)
	}
}
