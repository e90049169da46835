package validator

import (
	"regexp"

	"github.com/martinsuchenak/vlanaudit/pkg/model"
)

var podPrefixRe = regexp.MustCompile(`^pod-\d+`)

// PodOf returns the pod a fully-qualified path belongs to, taken from its
// leading pod-N segment.
func PodOf(fullPath string) (model.Pod, bool) {
	p := podPrefixRe.FindString(fullPath)
	if p == "" {
		return "", false
	}
	return model.Pod(p), true
}

// AllowedPaths returns the paths bound to the endpoint's VLAN in the
// endpoint's pod. A binding for the right VLAN in another pod does not count.
func AllowedPaths(endpoint *model.EndpointRecord, attachments []model.PathAttachment) map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, a := range attachments {
		pod, ok := PodOf(a.FullPath)
		if !ok {
			continue
		}
		if a.VLAN == endpoint.VLAN && pod == endpoint.Pod {
			allowed[a.Path] = struct{}{}
		}
	}
	return allowed
}

// ValidateVLANAllowances judges every path of the endpoint against the
// attachments, one result per path in endpoint order.
func ValidateVLANAllowances(endpoint *model.EndpointRecord, attachments []model.PathAttachment) []model.ValidationResult {
	allowed := AllowedPaths(endpoint, attachments)

	results := make([]model.ValidationResult, 0, len(endpoint.Paths))
	for _, path := range endpoint.Paths {
		_, ok := allowed[path]
		results = append(results, model.ValidationResult{
			Path:              path,
			HasActiveEndpoint: true,
			IsVLANAllowed:     ok,
			Status:            model.StatusFor(ok),
		})
	}
	return results
}
