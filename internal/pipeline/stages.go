package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lathe/internal/bugfix"
	"lathe/internal/buildkit"
	"lathe/internal/checksum"
	"lathe/internal/logging"
	"lathe/internal/publish"
	"lathe/internal/relnotes"
	"lathe/internal/services"
)

// docsStage generates and persists release documentation and updates the
// changelog. It always runs, dry-run included. The returned string is the
// combined notes body, reused as the remote release description.
func (o *Orchestrator) docsStage(ctx context.Context, run *Run, failed *bool) string {
	ctx = services.WithStage(ctx, StageDocs)
	logger := logging.WithContext(ctx, o.logger)

	fixes, err := bugfix.Load(o.resolveProjectPath(o.cfg.Project.BugFixesPath))
	if err != nil {
		run.recordError(fmt.Sprintf("load bug-fix records: %v", err))
		*failed = true
		return ""
	}

	notes := o.generator.Generate(run.Version, fixes)
	created, err := o.generator.Persist(notes, o.cfg.Paths.OutputDir)
	for kind, path := range created {
		run.Docs[kind] = path
	}
	if err != nil {
		run.recordError(fmt.Sprintf("persist documentation: %v", err))
		*failed = true
		return ""
	}

	changelogPath := o.resolveProjectPath(o.cfg.Project.ChangelogPath)
	if err := o.generator.UpdateChangelog(run.Version, fixes, changelogPath); err != nil {
		run.recordError(fmt.Sprintf("update changelog: %v", err))
		*failed = true
		return ""
	}

	run.completeStage(StageDocs)
	logger.Info("documentation stage complete", logging.Int("files", len(created)))

	if combined, ok := run.Docs[relnotes.KindCombined]; ok {
		if body, readErr := os.ReadFile(combined); readErr == nil {
			return string(body)
		}
	}
	return ""
}

// buildStage builds the executable bundle and the source archive
// concurrently. Partial failure is recorded without aborting; zero
// successful builds is fatal for the rest of the run.
func (o *Orchestrator) buildStage(ctx context.Context, run *Run, failed, fatal *bool) {
	ctx = services.WithStage(ctx, StageBuild)
	logger := logging.WithContext(ctx, o.logger)

	entryPoint, err := o.builder.ResolveEntryPoint()
	if err != nil {
		run.recordError(fmt.Sprintf("resolve entry point: %v", err))
		run.Assets[ArtifactBundle] = buildkit.BuildResult{Error: "entry point unresolved"}
	}

	var (
		wg     sync.WaitGroup
		bundle buildkit.BuildResult
		source buildkit.BuildResult
	)
	if err == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bundle = o.builder.BuildBundle(ctx, entryPoint, run.Version)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		source = o.builder.PackageSource(ctx, run.Version)
	}()
	wg.Wait()

	if err == nil {
		run.Assets[ArtifactBundle] = bundle
		if !bundle.Success {
			run.recordError(fmt.Sprintf("bundle build failed: %s", bundle.Error))
		}
	}
	run.Assets[ArtifactSource] = source
	if !source.Success {
		run.recordError(fmt.Sprintf("source packaging failed: %s", source.Error))
	}

	if cleanupErr := o.builder.Cleanup(); cleanupErr != nil {
		logger.Warn("work directory cleanup failed", logging.Error(cleanupErr))
	}

	succeeded := run.SuccessfulBuilds()
	if succeeded == 0 {
		run.recordError("no artifact built successfully")
		*failed = true
		*fatal = true
		return
	}
	// Partial failure stays in the error list but the stage completes and
	// overall success is untouched.
	run.completeStage(StageBuild)
	logger.Info("build stage complete",
		logging.Int("succeeded", succeeded),
		logging.Int("attempted", len(run.Assets)),
	)
}

// publishStage validates local assets, creates the remote release, and
// uploads every successful artifact plus the documentation kinds marked for
// publication. Individual upload failures are recorded without aborting the
// remaining uploads.
func (o *Orchestrator) publishStage(ctx context.Context, run *Run, notesBody string, failed *bool) {
	ctx = services.WithStage(ctx, StagePublish)
	logger := logging.WithContext(ctx, o.logger)

	publisher := o.publisher
	if publisher == nil {
		client, err := publish.New(o.cfg, o.logger)
		if err != nil {
			run.recordError(fmt.Sprintf("publisher unavailable: %v", err))
			*failed = true
			return
		}
		publisher = client
	}

	assets, err := o.collectAssets(run)
	if err != nil {
		run.recordError(err.Error())
		*failed = true
		return
	}

	report := publisher.Validate(assets)
	if !report.Valid {
		run.recordError(fmt.Sprintf(
			"asset validation failed: %d missing, %d checksum mismatches, %d size mismatches",
			len(report.Missing), len(report.ChecksumMismatches), len(report.SizeMismatches)))
		*failed = true
		return
	}

	title := fmt.Sprintf("%s v%s", o.cfg.Project.AppName, run.Version)
	ref, err := publisher.Create(ctx, publish.ReleaseData{
		Version:    run.Version,
		Tag:        "v" + run.Version,
		Title:      title,
		Body:       notesBody,
		Draft:      o.cfg.Publish.Draft,
		Prerelease: o.cfg.Publish.Prerelease,
	})
	if err != nil {
		run.recordError(fmt.Sprintf("create release: %v", err))
		*failed = true
		return
	}
	run.ReleaseURL = ref.HTMLURL

	uploaded := 0
	for _, asset := range assets {
		if err := o.uploadWithRetry(ctx, publisher, ref, asset); err != nil {
			run.recordError(fmt.Sprintf("upload %s: %v", asset.Name, err))
			continue
		}
		uploaded++
	}

	run.completeStage(StagePublish)
	logger.Info("publish stage complete",
		logging.String("release_url", run.ReleaseURL),
		logging.Int("uploaded", uploaded),
		logging.Int("attempted", len(assets)),
	)
}

// uploadWithRetry retries retryable transport failures up to the configured
// attempt budget. Auth, duplicate, and integrity failures surface at once.
func (o *Orchestrator) uploadWithRetry(ctx context.Context, publisher Publisher, ref *publish.ReleaseRef, asset publish.ReleaseAsset) error {
	logger := logging.WithContext(ctx, o.logger)

	var lastErr error
	for attempt := 0; attempt <= o.cfg.Publish.RetryAttempts; attempt++ {
		if _, err := publisher.Upload(ctx, ref, asset); err != nil {
			lastErr = err
			if !services.IsRetryable(err) {
				return err
			}
			logger.Warn("asset upload failed, may retry",
				logging.String("asset", asset.Name),
				logging.Int("attempt", attempt+1),
				logging.Error(err),
			)
			continue
		}
		return nil
	}
	return lastErr
}

// collectAssets assembles the upload set: each successful build result plus
// the documentation kinds configured for publication. Failed builds never
// yield an asset.
func (o *Orchestrator) collectAssets(run *Run) ([]publish.ReleaseAsset, error) {
	var assets []publish.ReleaseAsset

	for _, key := range []string{ArtifactBundle, ArtifactSource} {
		result, ok := run.Assets[key]
		if !ok || !result.Success {
			continue
		}
		contentType := "application/octet-stream"
		if key == ArtifactSource {
			contentType = "application/zip"
		}
		assets = append(assets, publish.ReleaseAsset{
			Name:        filepath.Base(result.OutputPath),
			Path:        result.OutputPath,
			ContentType: contentType,
			Size:        result.Size,
			Checksum:    result.Checksum,
		})
	}
	if len(assets) == 0 {
		return nil, errors.New("no successful build results to publish")
	}

	for _, kind := range o.cfg.Publish.DocKinds {
		path, ok := run.Docs[relnotes.Kind(kind)]
		if !ok {
			continue
		}
		size, digest, err := checksum.File(path)
		if err != nil {
			return nil, fmt.Errorf("register documentation asset %s: %w", filepath.Base(path), err)
		}
		assets = append(assets, publish.ReleaseAsset{
			Name:        filepath.Base(path),
			Path:        path,
			ContentType: "text/markdown; charset=utf-8",
			Size:        size,
			Checksum:    digest,
		})
	}
	return assets, nil
}

// repoUpdateStage reflects the release into local repository files. It runs
// regardless of the publish outcome since it only mirrors documentation
// state.
func (o *Orchestrator) repoUpdateStage(ctx context.Context, run *Run, failed *bool) {
	ctx = services.WithStage(ctx, StageRepoUpdate)
	logger := logging.WithContext(ctx, o.logger)

	readmePath := o.resolveProjectPath(o.cfg.Project.ReadmePath)
	updated, err := o.generator.AnnounceInReadme(run.Version, readmePath)
	if err != nil {
		run.recordError(fmt.Sprintf("announce in readme: %v", err))
		*failed = true
		return
	}

	run.completeStage(StageRepoUpdate)
	logger.Info("repository update complete", logging.Bool("readme_updated", updated))
}

// resolveProjectPath anchors relative configuration paths at the project
// directory.
func (o *Orchestrator) resolveProjectPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.cfg.Paths.ProjectDir, path)
}
