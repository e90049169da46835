package model

// Pod identifies the fabric pod an endpoint or attachment lives in
type Pod string

const (
	Pod1 Pod = "pod-1"
	Pod2 Pod = "pod-2"

	// DefaultPod is used when the endpoint dump carries no node classification
	DefaultPod = Pod1
)

// EndpointRecord holds the facts extracted from one endpoint diagnostic dump
type EndpointRecord struct {
	VLAN  string   `json:"vlan"`
	IP    string   `json:"ip"`    // reserved, always empty
	Paths []string `json:"paths"` // distinct, in order of first appearance
	Pod   Pod      `json:"pod"`
}
