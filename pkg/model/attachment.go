package model

// PathKind distinguishes dual-homed from single-homed attachment paths
type PathKind string

const (
	PathKindVPC    PathKind = "vpc"    // topology/pod-N/protpaths-A-B/pathep-[...]
	PathKindSingle PathKind = "single" // topology/pod-N/paths-N/pathep-[...]
)

// PathAttachment is one static path binding of an EPG, taken from a moquery dump
type PathAttachment struct {
	VLAN     string   `json:"vlan"`
	EPG      string   `json:"epg"`
	Path     string   `json:"path"`
	FullPath string   `json:"full_path"` // e.g. "pod-2/protpaths-101-102/pathep-[101-102-VPC-1-PG]"
	Kind     PathKind `json:"kind"`
}
