package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/martinsuchenak/vlanaudit/internal/worker"
	"github.com/martinsuchenak/vlanaudit/pkg/model"
	"gopkg.in/yaml.v3"
)

// Manifest lists the audits of a batch run
type Manifest struct {
	OutputDir string          `yaml:"output_dir"`
	Audits    []ManifestEntry `yaml:"audits"`

	// dir is the manifest's directory, relative paths resolve against it
	dir string
}

// ManifestEntry points at the pair of dumps for one audit
type ManifestEntry struct {
	Name         string `yaml:"name"`
	EndpointFile string `yaml:"endpoint_file"`
	MoqueryFile  string `yaml:"moquery_file"`
	EPG          string `yaml:"epg,omitempty"`
	VLAN         string `yaml:"vlan,omitempty"`
}

// Outcome is the result of one manifest entry
type Outcome struct {
	Name     string             `json:"name"`
	Report   *model.AuditReport `json:"report,omitempty"`
	Artifact string             `json:"artifact,omitempty"`
	Err      error              `json:"-"`
	Error    string             `json:"error,omitempty"`
}

// LoadManifest reads and validates a batch manifest
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	var m Manifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestInvalid, path, err)
	}
	m.dir = filepath.Dir(path)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every entry names its dumps and that names are unique
func (m *Manifest) Validate() error {
	if len(m.Audits) == 0 {
		return fmt.Errorf("%w: no audits listed", ErrManifestInvalid)
	}

	names := make(map[string]int, len(m.Audits))
	for i, e := range m.Audits {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: audit %d has no name", ErrManifestInvalid, i)
		}
		if prev, ok := names[e.Name]; ok {
			return fmt.Errorf("%w: audit %d reuses name %q of audit %d", ErrManifestInvalid, i, e.Name, prev)
		}
		names[e.Name] = i
		if e.EndpointFile == "" || e.MoqueryFile == "" {
			return fmt.Errorf("%w: audit %q needs endpoint_file and moquery_file", ErrManifestInvalid, e.Name)
		}
	}
	return nil
}

// Resolve returns path relative to the manifest directory
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.dir, path)
}

// Files returns every dump file the manifest refers to, resolved
func (m *Manifest) Files() []string {
	files := make([]string, 0, len(m.Audits)*2)
	for _, e := range m.Audits {
		files = append(files, m.Resolve(e.EndpointFile), m.Resolve(e.MoqueryFile))
	}
	return files
}

// BatchRunner runs manifest audits concurrently
type BatchRunner struct {
	auditor   *Auditor
	workers   int
	outputDir string // used when the manifest sets none
}

// NewBatchRunner creates a new BatchRunner
func NewBatchRunner(auditor *Auditor, workers int, outputDir string) *BatchRunner {
	return &BatchRunner{auditor: auditor, workers: workers, outputDir: outputDir}
}

// Run executes every audit of the manifest and writes their artifacts.
// Outcomes are returned in manifest order; a failing audit does not stop the
// others. The returned error joins the individual failures.
func (b *BatchRunner) Run(ctx context.Context, m *Manifest) ([]Outcome, error) {
	outputDir := b.outputDir
	if m.OutputDir != "" {
		outputDir = m.Resolve(m.OutputDir)
	}

	start := time.Now()
	log.Info("Batch audit starting", "audits", len(m.Audits), "workers", b.workers, "output_dir", outputDir)

	outcomes := make([]Outcome, len(m.Audits))
	results := make([]chan error, len(m.Audits))

	pool := worker.NewWorkerPool(ctx, b.workers)
	pool.Start()

	for i, entry := range m.Audits {
		outcomes[i].Name = entry.Name
		results[i] = make(chan error, 1)

		err := pool.Submit(worker.Job{
			ID:     entry.Name,
			Result: results[i],
			Handler: func(ctx context.Context) error {
				rep, artifact, err := b.runEntry(ctx, m, entry, outputDir)
				outcomes[i].Report = rep
				outcomes[i].Artifact = artifact
				return err
			},
		})
		if err != nil {
			results[i] <- err
		}
	}
	pool.Wait()

	var errs []error
	for i := range outcomes {
		if err := <-results[i]; err != nil {
			outcomes[i].Err = err
			outcomes[i].Error = err.Error()
			errs = append(errs, fmt.Errorf("audit %q: %w", outcomes[i].Name, err))
			log.Error("Audit failed", "name", outcomes[i].Name, "error", err)
		}
	}

	log.Info("Batch audit finished", "audits", len(m.Audits), "failed", len(errs), "duration", time.Since(start))
	return outcomes, errors.Join(errs...)
}

func (b *BatchRunner) runEntry(ctx context.Context, m *Manifest, entry ManifestEntry, outputDir string) (*model.AuditReport, string, error) {
	endpointText, err := os.ReadFile(m.Resolve(entry.EndpointFile))
	if err != nil {
		return nil, "", fmt.Errorf("reading endpoint output: %w", err)
	}
	moqueryText, err := os.ReadFile(m.Resolve(entry.MoqueryFile))
	if err != nil {
		return nil, "", fmt.Errorf("reading moquery output: %w", err)
	}

	rep, err := b.auditor.Run(ctx, model.AuditRequest{
		Name:           entry.Name,
		EndpointOutput: string(endpointText),
		MoqueryOutput:  string(moqueryText),
		EPG:            entry.EPG,
		VLAN:           entry.VLAN,
	})
	if err != nil {
		return nil, "", err
	}

	artifact, err := WriteArtifact(outputDir, rep)
	if err != nil {
		return rep, "", err
	}
	return rep, artifact, nil
}
