package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/martinsuchenak/vlanaudit/pkg/model"
)

var (
	// vlan-105, VLAN-105
	vlanMarkerRe = regexp.MustCompile(`(?i)vlan-(\d+)`)

	// "Node ..." header with the node id as the first number on the following line
	nodeBlockRe = regexp.MustCompile(`Node[^\n]*\n\s*(\d+)\s+(\d+)`)

	// vpc 101-102-VPC-1-PG
	vpcPathRe = regexp.MustCompile(`(?i)vpc ([\d-]+-VPC-[\d-]+-PG)`)
)

const (
	pod2MinNode = 400
	pod1MinNode = 300
)

// ParseEndpointOutput extracts the endpoint VLAN, pod and VPC paths from an
// endpoint diagnostic dump. It returns false when the text carries no VLAN
// marker or no VPC path.
func ParseEndpointOutput(text string) (*model.EndpointRecord, bool) {
	var (
		vlan  string
		pod   model.Pod
		paths []string
		seen  = make(map[string]struct{})
	)

	for _, line := range strings.Split(text, "\n") {
		for _, m := range vlanMarkerRe.FindAllStringSubmatch(line, -1) {
			vlan = m[1]
		}

		for _, m := range vpcPathRe.FindAllStringSubmatch(line, -1) {
			path := m[1]
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}

	// The node block spans two lines, so it is matched against the whole text.
	for _, m := range nodeBlockRe.FindAllStringSubmatch(text, -1) {
		if p, ok := classifyNode(m[1]); ok {
			pod = p
		}
	}

	if vlan == "" || len(paths) == 0 {
		return nil, false
	}
	if pod == "" {
		pod = model.DefaultPod
	}

	return &model.EndpointRecord{
		VLAN:  vlan,
		Paths: paths,
		Pod:   pod,
	}, true
}

// classifyNode maps a leaf node id to its pod
func classifyNode(id string) (model.Pod, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return "", false
	}
	switch {
	case n >= pod2MinNode:
		return model.Pod2, true
	case n >= pod1MinNode:
		return model.Pod1, true
	default:
		return "", false
	}
}
