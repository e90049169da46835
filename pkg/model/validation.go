package model

// Status is the verdict for a single path
type Status string

const (
	StatusAllowed    Status = "allowed"
	StatusNotAllowed Status = "not_allowed"
)

// ValidationResult is the verdict for one path of an endpoint
type ValidationResult struct {
	Path              string `json:"path"`
	HasActiveEndpoint bool   `json:"has_active_endpoint"`
	IsVLANAllowed     bool   `json:"is_vlan_allowed"`
	Status            Status `json:"status"`
}

// StatusFor maps the allowed flag to its Status
func StatusFor(allowed bool) Status {
	if allowed {
		return StatusAllowed
	}
	return StatusNotAllowed
}

// CountByStatus returns the number of allowed and not allowed results
func CountByStatus(results []ValidationResult) (allowed, notAllowed int) {
	for _, r := range results {
		if r.Status == StatusAllowed {
			allowed++
		} else {
			notAllowed++
		}
	}
	return allowed, notAllowed
}
