package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/martinsuchenak/vlanaudit/internal/parser"
	"github.com/martinsuchenak/vlanaudit/internal/report"
	"github.com/martinsuchenak/vlanaudit/internal/validator"
	"github.com/martinsuchenak/vlanaudit/pkg/model"
)

var (
	ErrEmptyInput        = errors.New("endpoint output is empty")
	ErrEndpointNotFound  = errors.New("no endpoint with a VLAN and VPC path found")
	ErrManifestInvalid   = errors.New("invalid manifest")
	unsafeFileNameCharRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Auditor runs the extract, validate and generate pipeline for one pair of
// controller dumps.
type Auditor struct {
	now func() time.Time
}

// NewAuditor creates a new Auditor
func NewAuditor() *Auditor {
	return &Auditor{now: time.Now}
}

// Run audits the endpoint dump against the moquery dump. The returned report
// carries the remediation CSV.
func (a *Auditor) Run(ctx context.Context, req model.AuditRequest) (*model.AuditReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.EndpointOutput) == "" {
		return nil, ErrEmptyInput
	}

	started := a.now()

	endpoint, ok := parser.ParseEndpointOutput(req.EndpointOutput)
	if !ok {
		log.Warn("Endpoint not found in output", "name", req.Name)
		return nil, ErrEndpointNotFound
	}
	log.Debug("Endpoint parsed", "name", req.Name, "vlan", endpoint.VLAN, "pod", endpoint.Pod, "paths", len(endpoint.Paths))

	attachments := parser.ParseMoqueryOutput(req.MoqueryOutput)
	log.Debug("Attachments parsed", "name", req.Name, "count", len(attachments))

	results := validator.ValidateVLANAllowances(endpoint, attachments)

	vlan := req.VLAN
	if vlan == "" {
		vlan = endpoint.VLAN
	}
	epg := req.EPG
	if epg == "" {
		epg = DeriveEPG(endpoint, attachments)
	}
	if epg == "" {
		log.Warn("No EPG found for endpoint VLAN, CSV rows will have an empty EPG", "vlan", endpoint.VLAN)
	}

	csv := report.GenerateCSV(vlan, epg, results, endpoint, attachments)
	allowed, notAllowed := model.CountByStatus(results)

	name := req.Name
	if name == "" {
		name = "vlan" + vlan + "-disallowed"
	}

	rep := &model.AuditReport{
		ID:              newID(),
		Name:            name,
		VLAN:            vlan,
		EPG:             epg,
		Endpoint:        endpoint,
		Attachments:     len(attachments),
		Results:         results,
		AllowedCount:    allowed,
		NotAllowedCount: notAllowed,
		CSV:             csv,
		StartedAt:       started,
		FinishedAt:      a.now(),
	}

	log.Info("Audit completed",
		"id", rep.ID,
		"name", rep.Name,
		"vlan", rep.VLAN,
		"pod", endpoint.Pod,
		"allowed", allowed,
		"not_allowed", notAllowed)

	return rep, nil
}

// DeriveEPG picks the EPG carrying the endpoint VLAN, preferring a binding
// in the endpoint's pod.
func DeriveEPG(endpoint *model.EndpointRecord, attachments []model.PathAttachment) string {
	fallback := ""
	for _, att := range attachments {
		if att.VLAN != endpoint.VLAN {
			continue
		}
		if pod, ok := validator.PodOf(att.FullPath); ok && pod == endpoint.Pod {
			return att.EPG
		}
		if fallback == "" {
			fallback = att.EPG
		}
	}
	return fallback
}

// WriteArtifact writes the report CSV to <dir>/<name>.csv and returns the path
func WriteArtifact(dir string, rep *model.AuditReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	filePath := filepath.Join(dir, ArtifactName(rep.Name))
	if err := os.WriteFile(filePath, []byte(rep.CSV+"\n"), 0644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}

	log.Info("Written audit artifact", "file", filePath, "rows", report.RowCount(rep.CSV))
	return filePath, nil
}

// ArtifactName returns a file-system safe CSV file name for an audit name
func ArtifactName(name string) string {
	safe := strings.Trim(unsafeFileNameCharRe.ReplaceAllString(name, "_"), "._")
	if safe == "" {
		safe = "audit"
	}
	return safe + ".csv"
}

// newID generates a UUIDv7 for a report
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
