package parser

import (
	"regexp"
	"strings"

	"github.com/martinsuchenak/vlanaudit/pkg/model"
)

var (
	// uni/tn-T/ap-A/epg-E/rspathAtt-[topology/pod-2/protpaths-101-102/pathep-[101-102-VPC-1-PG]]
	vpcAttachmentRe = regexp.MustCompile(
		`uni/tn-[^/]+/ap-[^/]+/epg-([^/]+)/rspathAtt-\[topology/(pod-\d+/protpaths-[\d-]+/pathep-\[[^\]]+\])\]`)

	// uni/tn-T/ap-A/epg-E/rspathAtt-[topology/pod-1/paths-301/pathep-[eth1/10]]
	singleAttachmentRe = regexp.MustCompile(
		`uni/tn-[^/]+/ap-[^/]+/epg-([^/]+)/rspathAtt-\[topology/(pod-\d+/paths-\d+/pathep-\[[^\]]+\])\]`)

	epgVLANRe   = regexp.MustCompile(`(?i)VLAN(\d+)`)
	pathEndptRe = regexp.MustCompile(`pathep-\[([^\]]+)\]`)
)

// topologyMatch is the result of matching one dn line against the two
// attachment shapes. Exactly one shape applies per matching line.
type topologyMatch struct {
	kind     model.PathKind
	epg      string
	fullPath string
}

// matchTopology tries the dual-homed shape first, then the single-homed one.
func matchTopology(line string) (topologyMatch, bool) {
	if m := vpcAttachmentRe.FindStringSubmatch(line); m != nil {
		return topologyMatch{kind: model.PathKindVPC, epg: m[1], fullPath: m[2]}, true
	}
	if m := singleAttachmentRe.FindStringSubmatch(line); m != nil {
		return topologyMatch{kind: model.PathKindSingle, epg: m[1], fullPath: m[2]}, true
	}
	return topologyMatch{}, false
}

// ParseMoqueryOutput extracts every static path binding from a moquery dump.
// Lines that match neither attachment shape, or whose EPG carries no VLAN
// marker, are skipped. Output follows input order and keeps duplicates.
func ParseMoqueryOutput(text string) []model.PathAttachment {
	attachments := make([]model.PathAttachment, 0)

	for _, line := range strings.Split(text, "\n") {
		tm, ok := matchTopology(line)
		if !ok {
			continue
		}

		var vlan, path string
		if m := epgVLANRe.FindStringSubmatch(tm.epg); m != nil {
			vlan = m[1]
		}
		if m := pathEndptRe.FindStringSubmatch(tm.fullPath); m != nil {
			path = m[1]
		}
		if vlan == "" || path == "" {
			continue
		}

		attachments = append(attachments, model.PathAttachment{
			VLAN:     vlan,
			EPG:      tm.epg,
			Path:     path,
			FullPath: tm.fullPath,
			Kind:     tm.kind,
		})
	}

	return attachments
}
