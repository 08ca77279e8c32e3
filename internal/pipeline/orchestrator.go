package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lathe/internal/buildkit"
	"lathe/internal/config"
	"lathe/internal/history"
	"lathe/internal/logging"
	"lathe/internal/notifications"
	"lathe/internal/publish"
	"lathe/internal/relnotes"
	"lathe/internal/services"
)

// Publisher is the subset of the release client the orchestrator drives.
type Publisher interface {
	Validate(assets []publish.ReleaseAsset) publish.ValidationReport
	Create(ctx context.Context, data publish.ReleaseData) (*publish.ReleaseRef, error)
	Upload(ctx context.Context, release *publish.ReleaseRef, asset publish.ReleaseAsset) (*publish.UploadReceipt, error)
}

// Request selects what a pipeline execution should do.
type Request struct {
	Version string
	DryRun  bool
}

// Orchestrator drives one release run through its stages: documentation,
// artifact builds, publication, and local repository updates.
type Orchestrator struct {
	cfg       *config.Config
	logger    *slog.Logger
	builder   *buildkit.Builder
	generator *relnotes.Generator
	publisher Publisher
	notifier  notifications.Service
	store     *history.Store

	buildOpts []buildkit.Option
	genOpts   []relnotes.Option
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithPublisher injects a release publisher. Without one, a client is
// constructed lazily when a non-dry-run reaches the publish stage.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithNotifier overrides the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithHistory attaches a run journal. Runs are recorded regardless of
// outcome when a store is present.
func WithHistory(store *history.Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithBuildOptions forwards options to the artifact builder.
func WithBuildOptions(opts ...buildkit.Option) Option {
	return func(o *Orchestrator) { o.buildOpts = append(o.buildOpts, opts...) }
}

// WithGeneratorOptions forwards options to the documentation generator.
func WithGeneratorOptions(opts ...relnotes.Option) Option {
	return func(o *Orchestrator) { o.genOpts = append(o.genOpts, opts...) }
}

// New constructs an orchestrator and its stage components.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	o := &Orchestrator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		notifier: notifications.NewService(cfg),
	}
	for _, opt := range opts {
		opt(o)
	}

	builder, err := buildkit.New(cfg, logger, o.buildOpts...)
	if err != nil {
		return nil, err
	}
	o.builder = builder

	generator, err := relnotes.New(cfg, logger, o.genOpts...)
	if err != nil {
		return nil, err
	}
	o.generator = generator

	return o, nil
}

// Execute runs the pipeline once. All stage-level failures are captured
// into the returned Run; the error return is reserved for conditions that
// prevent the run from proceeding at all, such as another run holding the
// output-directory lock or cancellation between stages.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Run, error) {
	version := req.Version
	if version == "" {
		version = o.cfg.Project.DefaultVersion
	}

	run := &Run{
		ID:        uuid.NewString(),
		Version:   version,
		DryRun:    req.DryRun,
		Assets:    make(map[string]buildkit.BuildResult),
		Docs:      make(map[relnotes.Kind]string),
		StartedAt: time.Now(),
	}

	ctx = services.WithRunID(ctx, run.ID)
	ctx = services.WithVersion(ctx, run.Version)
	logger := logging.WithContext(ctx, o.logger)

	release, err := o.acquireLock()
	if err != nil {
		return run, err
	}
	defer release()

	logger.Info("pipeline run starting",
		logging.Bool("dry_run", run.DryRun),
		logging.String("run_id", run.ID),
	)
	if err := o.notifier.NotifyRunStarted(ctx, run.Version, run.DryRun); err != nil {
		logger.Warn("run-start notification failed", logging.Error(err))
	}

	failed := false
	fatal := false

	notesBody := o.docsStage(ctx, run, &failed)

	if err := o.checkpoint(ctx, run); err != nil {
		return o.finish(ctx, run, false), err
	}

	o.buildStage(ctx, run, &failed, &fatal)

	if !fatal {
		if err := o.checkpoint(ctx, run); err != nil {
			return o.finish(ctx, run, false), err
		}

		if run.DryRun {
			logger.Info("dry run, skipping publish stage")
		} else {
			o.publishStage(ctx, run, notesBody, &failed)
		}

		if err := o.checkpoint(ctx, run); err != nil {
			return o.finish(ctx, run, false), err
		}

		o.repoUpdateStage(ctx, run, &failed)
	}

	return o.finish(ctx, run, !failed && !fatal), nil
}

// checkpoint implements cooperative cancellation between stages.
func (o *Orchestrator) checkpoint(ctx context.Context, run *Run) error {
	if err := ctx.Err(); err != nil {
		run.recordError(fmt.Sprintf("run cancelled: %v", err))
		return err
	}
	return nil
}

// acquireLock takes an exclusive file lock on the output directory so two
// runs cannot interleave writes to the same artifact names.
func (o *Orchestrator) acquireLock() (func(), error) {
	if err := os.MkdirAll(o.cfg.Paths.OutputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "pipeline", "lock", "create output directory", err)
	}

	lock := flock.New(filepath.Join(o.cfg.Paths.OutputDir, ".lathe.lock"))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "pipeline", "lock", "acquire run lock", err)
	}
	if !acquired {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock",
			"another release run holds the output directory lock", nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (o *Orchestrator) finish(ctx context.Context, run *Run, success bool) *Run {
	run.Success = success
	run.FinishedAt = time.Now()

	// Notifications and the journal still run after a cancellation.
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("pipeline run finished",
		logging.Bool("success", run.Success),
		logging.Int("errors", len(run.Errors)),
		logging.Duration("duration", run.Duration()),
	)

	if run.Success && !run.DryRun && run.ReleaseURL != "" {
		if err := o.notifier.NotifyReleasePublished(ctx, run.Version, run.ReleaseURL, run.SuccessfulBuilds()); err != nil {
			logger.Warn("publish notification failed", logging.Error(err))
		}
	} else if !run.Success {
		var cause error
		if len(run.Errors) > 0 {
			cause = errors.New(run.Errors[len(run.Errors)-1])
		}
		if err := o.notifier.NotifyReleaseFailed(ctx, run.Version, cause); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}

	if o.store != nil {
		record := history.RunRecord{
			ID:         run.ID,
			Version:    run.Version,
			DryRun:     run.DryRun,
			Success:    run.Success,
			Stages:     run.StagesCompleted,
			Errors:     run.Errors,
			ReleaseURL: run.ReleaseURL,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		}
		if err := o.store.RecordRun(ctx, record); err != nil {
			logger.Warn("journal write failed", logging.Error(err))
		}
	}

	return run
}
