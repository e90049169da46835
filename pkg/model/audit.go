package model

import "time"

// AuditRequest carries the raw controller output for one audit
type AuditRequest struct {
	Name           string `json:"name,omitempty"`
	EndpointOutput string `json:"endpoint_output"`
	MoqueryOutput  string `json:"moquery_output"`
	EPG            string `json:"epg,omitempty"`  // overrides the derived EPG
	VLAN           string `json:"vlan,omitempty"` // overrides the endpoint VLAN
}

// AuditReport is the outcome of one audit run
type AuditReport struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	VLAN            string             `json:"vlan"`
	EPG             string             `json:"epg"`
	Endpoint        *EndpointRecord    `json:"endpoint"`
	Attachments     int                `json:"attachments"`
	Results         []ValidationResult `json:"results"`
	AllowedCount    int                `json:"allowed_count"`
	NotAllowedCount int                `json:"not_allowed_count"`
	CSV             string             `json:"csv"`
	StartedAt       time.Time          `json:"started_at"`
	FinishedAt      time.Time          `json:"finished_at"`
}
