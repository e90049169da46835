package validator

import (
	"fmt"
	"testing"

	"github.com/martinsuchenak/vlanaudit/pkg/model"
	"pgregory.net/rapid"
)

func exampleEndpoint() *model.EndpointRecord {
	return &model.EndpointRecord{
		VLAN:  "105",
		Pod:   model.Pod2,
		Paths: []string{"101-102-VPC-1-PG", "201-202-VPC-1-PG"},
	}
}

func TestPodOf(t *testing.T) {
	tests := []struct {
		fullPath string
		want     model.Pod
		wantOK   bool
	}{
		{"pod-2/protpaths-101-102/pathep-[101-102-VPC-1-PG]", model.Pod2, true},
		{"pod-1/paths-301/pathep-[eth1/10]", model.Pod1, true},
		{"pod-12/paths-301/pathep-[eth1/10]", model.Pod("pod-12"), true},
		{"topology/pod-1/paths-301/pathep-[eth1/10]", "", false},
		{"protpaths-101-102/pathep-[x]", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.fullPath, func(t *testing.T) {
			got, ok := PodOf(tt.fullPath)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("PodOf(%q) = %q, %v; want %q, %v", tt.fullPath, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValidateVLANAllowances_Example(t *testing.T) {
	attachments := []model.PathAttachment{{
		VLAN:     "105",
		EPG:      "VLAN105_EPG",
		Path:     "101-102-VPC-1-PG",
		FullPath: "pod-2/protpaths-101-102/pathep-[101-102-VPC-1-PG]",
		Kind:     model.PathKindVPC,
	}}

	results := ValidateVLANAllowances(exampleEndpoint(), attachments)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	want := map[string]model.Status{
		"101-102-VPC-1-PG": model.StatusAllowed,
		"201-202-VPC-1-PG": model.StatusNotAllowed,
	}
	for _, r := range results {
		if r.Status != want[r.Path] {
			t.Errorf("Path %s: expected %s, got %s", r.Path, want[r.Path], r.Status)
		}
		if !r.HasActiveEndpoint {
			t.Errorf("Path %s: expected active endpoint", r.Path)
		}
		if r.IsVLANAllowed != (r.Status == model.StatusAllowed) {
			t.Errorf("Path %s: allowed flag %v does not match status %s", r.Path, r.IsVLANAllowed, r.Status)
		}
	}
}

func TestValidateVLANAllowances_DoubleKey(t *testing.T) {
	tests := []struct {
		name       string
		attachment model.PathAttachment
		want       model.Status
	}{
		{
			name:       "vlan and pod match",
			attachment: model.PathAttachment{VLAN: "105", Path: "101-102-VPC-1-PG", FullPath: "pod-2/protpaths-101-102/pathep-[101-102-VPC-1-PG]"},
			want:       model.StatusAllowed,
		},
		{
			name:       "vlan matches in another pod",
			attachment: model.PathAttachment{VLAN: "105", Path: "101-102-VPC-1-PG", FullPath: "pod-1/protpaths-101-102/pathep-[101-102-VPC-1-PG]"},
			want:       model.StatusNotAllowed,
		},
		{
			name:       "pod matches with another vlan",
			attachment: model.PathAttachment{VLAN: "106", Path: "101-102-VPC-1-PG", FullPath: "pod-2/protpaths-101-102/pathep-[101-102-VPC-1-PG]"},
			want:       model.StatusNotAllowed,
		},
		{
			name:       "no pod in full path",
			attachment: model.PathAttachment{VLAN: "105", Path: "101-102-VPC-1-PG", FullPath: "protpaths-101-102/pathep-[101-102-VPC-1-PG]"},
			want:       model.StatusNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := ValidateVLANAllowances(exampleEndpoint(), []model.PathAttachment{tt.attachment})
			if results[0].Path != "101-102-VPC-1-PG" {
				t.Fatalf("Expected first result for 101-102-VPC-1-PG, got %s", results[0].Path)
			}
			if results[0].Status != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, results[0].Status)
			}
		})
	}
}

func TestValidateVLANAllowances_NoAttachments(t *testing.T) {
	for _, attachments := range [][]model.PathAttachment{nil, {}} {
		results := ValidateVLANAllowances(exampleEndpoint(), attachments)
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		for _, r := range results {
			if r.Status != model.StatusNotAllowed {
				t.Errorf("Path %s: expected not_allowed, got %s", r.Path, r.Status)
			}
		}
	}
}

func TestValidateVLANAllowances_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pods := []model.Pod{model.Pod1, model.Pod2}
		names := []string{"101-102-VPC-1-PG", "201-202-VPC-1-PG", "301-302-VPC-1-PG", "401-402-VPC-1-PG"}

		endpoint := &model.EndpointRecord{
			VLAN: fmt.Sprint(rapid.IntRange(100, 103).Draw(t, "vlan")),
			Pod:  rapid.SampledFrom(pods).Draw(t, "pod"),
		}
		seen := map[string]bool{}
		for _, n := range rapid.SliceOfN(rapid.SampledFrom(names), 1, 4).Draw(t, "paths") {
			if !seen[n] {
				seen[n] = true
				endpoint.Paths = append(endpoint.Paths, n)
			}
		}

		attachments := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) model.PathAttachment {
			path := rapid.SampledFrom(names).Draw(t, "path")
			pod := rapid.SampledFrom(pods).Draw(t, "pod")
			return model.PathAttachment{
				VLAN:     fmt.Sprint(rapid.IntRange(100, 103).Draw(t, "vlan")),
				Path:     path,
				FullPath: fmt.Sprintf("%s/protpaths-%s/pathep-[%s]", pod, path[:7], path),
			}
		}), 0, 10).Draw(t, "attachments")

		results := ValidateVLANAllowances(endpoint, attachments)
		if len(results) != len(endpoint.Paths) {
			t.Fatalf("expected %d results, got %d", len(endpoint.Paths), len(results))
		}

		for i, r := range results {
			if r.Path != endpoint.Paths[i] {
				t.Fatalf("result %d is for %s, expected %s", i, r.Path, endpoint.Paths[i])
			}
			authorized := false
			for _, a := range attachments {
				pod, _ := PodOf(a.FullPath)
				if a.Path == r.Path && a.VLAN == endpoint.VLAN && pod == endpoint.Pod {
					authorized = true
				}
			}
			if r.IsVLANAllowed != authorized {
				t.Fatalf("path %s: expected allowed=%v, got %v", r.Path, authorized, r.IsVLANAllowed)
			}
		}
	})
}
