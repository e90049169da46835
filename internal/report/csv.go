package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/martinsuchenak/vlanaudit/internal/validator"
	"github.com/martinsuchenak/vlanaudit/pkg/model"
)

// Header is the first line of every generated artifact
const Header = "VLAN,EPG,PATH"

// UnknownPortIndex stands in for the port index of a single-homed path that
// has no binding to copy it from.
const UnknownPortIndex = "XXX"

// 101-102-VPC-1-PG -> leaf pair 101, 102. Names with more than two leading
// node IDs do not match and take the single-homed placeholder.
var vpcNameRe = regexp.MustCompile(`(?i)^(\d+)-(\d+)-VPC`)

// GenerateCSV renders the not allowed results as remediation rows. Fields are
// written as-is; controller identifiers never contain commas or newlines.
func GenerateCSV(vlan, epg string, results []model.ValidationResult, endpoint *model.EndpointRecord, attachments []model.PathAttachment) string {
	rows := []string{Header}
	for _, r := range results {
		if r.Status != model.StatusNotAllowed {
			continue
		}
		fullPath := ResolveFullPath(r.Path, endpoint.Pod, attachments)
		rows = append(rows, vlan+","+epg+","+fullPath)
	}
	return strings.Join(rows, "\n")
}

// ResolveFullPath returns the fully-qualified topology path of path in pod.
// The first binding of the path in that pod wins; without one the path is
// synthesized from its name.
func ResolveFullPath(path string, pod model.Pod, attachments []model.PathAttachment) string {
	for _, a := range attachments {
		if a.Path != path {
			continue
		}
		if p, ok := validator.PodOf(a.FullPath); ok && p == pod {
			return a.FullPath
		}
	}
	return SynthesizeFullPath(path, pod)
}

// SynthesizeFullPath builds a fully-qualified path from the path name alone.
func SynthesizeFullPath(path string, pod model.Pod) string {
	if m := vpcNameRe.FindStringSubmatch(path); m != nil {
		return fmt.Sprintf("%s/protpaths-%s-%s/pathep-[%s]", pod, m[1], m[2], path)
	}
	return fmt.Sprintf("%s/paths-%s/pathep-[%s]", pod, UnknownPortIndex, path)
}

// RowCount returns the number of data rows in a generated artifact
func RowCount(csv string) int {
	lines := strings.Split(csv, "\n")
	if len(lines) == 0 || lines[0] != Header {
		return 0
	}
	return len(lines) - 1
}
