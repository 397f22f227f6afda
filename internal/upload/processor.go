package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

// LibraryStore is the slice of persistence the processor needs for libraries.
type LibraryStore interface {
	// CreateOrMerge persists the library under the global
	// (namespace, name, version, type) uniqueness rule. When the identity
	// already exists, the incoming data is merged into the stored record and
	// that record is returned; a new row is never duplicated.
	CreateOrMerge(ctx context.Context, lib *model.Library) (*model.Library, error)
}

// DependencyStore attaches libraries to projects.
type DependencyStore interface {
	// Attach creates the (project, library) dependency row if it does not
	// exist. Returns false when the row was already present.
	Attach(ctx context.Context, projectID, libraryID uint, addedManually bool) (bool, error)
}

// ProjectStore persists project upload-state transitions.
type ProjectStore interface {
	SetUploadState(ctx context.Context, projectID uint, state model.UploadState) error
}

// Options tune one ingestion run.
type Options struct {
	// ScanConflicts controls whether the pairwise license-conflict check runs
	// per imported library. The check is quadratic over each library's
	// license sets; deployments ingesting very large BOMs turn it off here
	// and run it on review instead. This is a declared policy, not a silent
	// skip.
	ScanConflicts bool

	// Concurrency bounds the parallel enrichment workers. Zero means 4.
	Concurrency int
}

// Processor runs the project ingestion flow: load, filter, dedup, enrich,
// persist, attach. It is the one long-running asynchronous operation of the
// system; per-project serialization is enforced here.
type Processor struct {
	Loaders   *Loaders
	Registry  *licenses.Registry
	Resolver  *licenses.Resolver
	Risk      *licenses.RiskCalculator
	Matrix    *licenses.ConflictMatrix
	Pipeline  *licenses.Pipeline
	Libraries LibraryStore
	Deps      DependencyStore
	Projects  ProjectStore
	Log       *slog.Logger

	opts *Options

	mu       sync.Mutex
	inFlight map[uint]bool
}

// Summary reports what one ingestion run did.
type Summary struct {
	BatchID  string
	Loaded   int // libraries produced by the loader
	Filtered int // dropped by the project's upload filter
	Imported int // libraries persisted (created or merged)
	Attached int // new dependency rows
	Existing int // dependency rows that already existed
}

// Start runs the ingestion asynchronously and reports the terminal state on
// the returned channel. A second start for a project whose upload is still in
// flight is refused: concurrent runs would race on the library and dependency
// dedup and that is a correctness hazard, not a throughput feature.
func (p *Processor) Start(ctx context.Context, project *model.Project, data []byte, mimeType string) (<-chan error, error) {
	if !p.acquire(project.ID) {
		return nil, fmt.Errorf("%w: upload already in flight for project %d", model.ErrValidation, project.ID)
	}

	if err := p.transition(ctx, project, model.UploadProcessing); err != nil {
		p.release(project.ID)
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer p.release(project.ID)

		_, err := p.process(ctx, project, data, mimeType)
		if err != nil {
			p.logger().Error("upload failed", "project", project.ID, "error", err)
			_ = p.transition(ctx, project, model.UploadFailure)
		} else {
			err = p.transition(ctx, project, model.UploadOK)
		}
		done <- err
	}()
	return done, nil
}

// Run is the synchronous variant used by the CLI: same flow, same state
// machine, caller waits.
func (p *Processor) Run(ctx context.Context, project *model.Project, data []byte, mimeType string) (Summary, error) {
	if !p.acquire(project.ID) {
		return Summary{}, fmt.Errorf("%w: upload already in flight for project %d", model.ErrValidation, project.ID)
	}
	defer p.release(project.ID)

	if err := p.transition(ctx, project, model.UploadProcessing); err != nil {
		return Summary{}, err
	}

	summary, err := p.process(ctx, project, data, mimeType)
	if err != nil {
		_ = p.transition(ctx, project, model.UploadFailure)
		return summary, err
	}
	return summary, p.transition(ctx, project, model.UploadOK)
}

func (p *Processor) process(ctx context.Context, project *model.Project, data []byte, mimeType string) (Summary, error) {
	summary := Summary{BatchID: uuid.NewString()}
	log := p.logger().With("project", project.ID, "batch", summary.BatchID)

	loader, err := p.Loaders.ForMIME(mimeType)
	if err != nil {
		return summary, err
	}

	incoming, err := loader.Load(data)
	if err != nil {
		return summary, fmt.Errorf("loading upload via %s: %w", loader.Name(), err)
	}
	summary.Loaded = len(incoming)

	incoming, summary.Filtered = applyFilter(project, incoming)
	incoming = dedupBatch(incoming)

	// Enrichment is pure per-library work and runs in parallel; persistence
	// below stays sequential, the store is the single writer per identity.
	g, gctx := errgroup.WithContext(ctx)
	workers := p.concurrency()
	g.SetLimit(workers)
	for _, lib := range incoming {
		lib := lib
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.Pipeline.Run(lib)
			p.Resolver.Resolve(lib)
			p.Risk.Apply(lib)
			if p.Matrix != nil && p.scanConflicts() {
				p.Matrix.CheckLibrary(lib)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	for _, lib := range incoming {
		stored, err := p.Libraries.CreateOrMerge(ctx, lib)
		if err != nil {
			return summary, fmt.Errorf("persisting %s: %w", lib.Label(), err)
		}
		summary.Imported++

		created, err := p.Deps.Attach(ctx, project.ID, stored.ID, false)
		if err != nil {
			return summary, fmt.Errorf("attaching %s: %w", lib.Label(), err)
		}
		if created {
			summary.Attached++
		} else {
			summary.Existing++
		}
	}

	log.Info("upload processed",
		"loaded", summary.Loaded,
		"filtered", summary.Filtered,
		"imported", summary.Imported,
		"attached", summary.Attached)
	return summary, nil
}

// SetOptions replaces the run options. Without a call the defaults apply:
// conflict scan on (interactive-scale uploads), four enrichment workers.
func (p *Processor) SetOptions(o Options) { p.opts = &o }

func (p *Processor) scanConflicts() bool {
	if p.opts == nil {
		return true
	}
	return p.opts.ScanConflicts
}

func (p *Processor) concurrency() int {
	if p.opts == nil || p.opts.Concurrency <= 0 {
		return 4
	}
	return p.opts.Concurrency
}

func (p *Processor) logger() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}

func (p *Processor) transition(ctx context.Context, project *model.Project, state model.UploadState) error {
	project.UploadState = state
	if p.Projects == nil {
		return nil
	}
	return p.Projects.SetUploadState(ctx, project.ID, state)
}

func (p *Processor) acquire(projectID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight == nil {
		p.inFlight = make(map[uint]bool)
	}
	if p.inFlight[projectID] {
		return false
	}
	p.inFlight[projectID] = true
	return true
}

func (p *Processor) release(projectID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, projectID)
}

// applyFilter drops incoming libraries whose name matches any pattern of the
// project's upload filter.
func applyFilter(project *model.Project, libs []*model.Library) ([]*model.Library, int) {
	patterns := project.FilterPatterns()
	if len(patterns) == 0 {
		return libs, 0
	}

	kept := libs[:0]
	dropped := 0
	for _, lib := range libs {
		matched := false
		for _, re := range patterns {
			if re.MatchString(lib.Name) {
				matched = true
				break
			}
		}
		if matched {
			dropped++
			continue
		}
		kept = append(kept, lib)
	}
	return kept, dropped
}

// dedupBatch collapses duplicate identities inside one upload, first
// occurrence wins.
func dedupBatch(libs []*model.Library) []*model.Library {
	seen := make(map[string]bool, len(libs))
	out := libs[:0]
	for _, lib := range libs {
		key := lib.IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, lib)
	}
	return out
}
