// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/molt/lib/clock"
	"github.com/bureau-foundation/molt/lib/decompile"
	"github.com/bureau-foundation/molt/lib/lazy"
	"github.com/bureau-foundation/molt/lib/mapping"
	"github.com/bureau-foundation/molt/lib/remap"
)

// Transformer rewrites a jar. Identity must change whenever the output
// for a given input could change.
type Transformer interface {
	Identity() string
	Transform(ctx context.Context, input, output string, classpath []string) error
}

// TransformerFactory builds the transformer for one remap stage.
type TransformerFactory func(table *mapping.Table, from, to string) (Transformer, error)

// RemapFactory is the default TransformerFactory: the class file
// remapper from lib/remap.
func RemapFactory(table *mapping.Table, from, to string) (Transformer, error) {
	remapper, err := remap.New(table, from, to)
	if err != nil {
		return nil, err
	}
	return remapper, nil
}

// Config configures a Pipeline.
type Config struct {
	// CacheDir is the root of the stage cache. Required.
	CacheDir string

	// Raw locates the obfuscated platform jar. Required.
	Raw RawSource

	// Mappings supplies the table with the obfuscated, intermediary,
	// and named namespaces. Required for the remap stages; it is not
	// evaluated until one of them is requested.
	Mappings *lazy.Value[*mapping.Table]

	// Remapper builds remap stage transformers. Nil means RemapFactory.
	Remapper TransformerFactory

	// Decompiler produces the decompiled stage. Nil makes that stage
	// fail.
	Decompiler decompile.Decompiler

	// Classpath lists the library jars handed to the decompiler. The
	// remap stages do not read it: a platform jar's supertypes outside
	// the jar are JDK classes, which carry no mappings. Nil means none.
	Classpath *lazy.Value[[]string]

	Clock  clock.Clock
	Logger *slog.Logger
}

// Pipeline produces staged jars for one platform jar. It is safe for
// concurrent use; every stage is computed at most once per Pipeline
// unless invalidated.
type Pipeline struct {
	cacheDir   string
	raw        RawSource
	mappings   *lazy.Value[*mapping.Table]
	remapper   TransformerFactory
	decompiler decompile.Decompiler
	classpath  *lazy.Value[[]string]
	clock      clock.Clock
	logger     *slog.Logger

	stages lazy.Group[Stage, *StagedJar]
}

// New validates config and returns a Pipeline. Nothing is read or
// computed until Get.
func New(config Config) (*Pipeline, error) {
	if config.CacheDir == "" {
		return nil, errors.New("pipeline: cache directory is required")
	}
	if config.Raw == nil {
		return nil, errors.New("pipeline: raw source is required")
	}
	cacheDir, err := filepath.Abs(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}
	pipeline := &Pipeline{
		cacheDir:   cacheDir,
		raw:        config.Raw,
		mappings:   config.Mappings,
		remapper:   config.Remapper,
		decompiler: config.Decompiler,
		classpath:  config.Classpath,
		clock:      config.Clock,
		logger:     config.Logger,
	}
	if pipeline.remapper == nil {
		pipeline.remapper = RemapFactory
	}
	if pipeline.classpath == nil {
		pipeline.classpath = lazy.Of[[]string](nil)
	}
	if pipeline.clock == nil {
		pipeline.clock = clock.Real()
	}
	if pipeline.logger == nil {
		pipeline.logger = slog.New(slog.DiscardHandler)
	}
	return pipeline, nil
}

// CacheDir returns the absolute stage cache root.
func (p *Pipeline) CacheDir() string { return p.cacheDir }

// Get returns the output of stage, producing it and every earlier
// stage first if needed. Failures are memoized like successes; use
// Invalidate to retry. A computation abandoned because its caller's
// ctx ended is not memoized, and callers whose own ctx is still live
// start it again.
func (p *Pipeline) Get(ctx context.Context, stage Stage) (*StagedJar, error) {
	if !stage.valid() {
		return nil, fmt.Errorf("pipeline: %w", &StageError{Stage: stage, Err: errors.New("unknown stage")})
	}
	for {
		ours := false
		cell := p.stages.Value(stage, func() (*StagedJar, error) {
			ours = true
			return p.produce(ctx, stage)
		})
		jar, err := cell.Wait(ctx)
		var stageErr *StageError
		if err == nil || !isContextError(err) || errors.As(err, &stageErr) {
			return jar, err
		}
		// A bare context error: this wait was abandoned, or the
		// computation was cancelled through its starter's context.
		if cell.State() == lazy.StateFailed {
			p.stages.ForgetValue(stage, cell)
		}
		if ctx.Err() != nil || ours {
			return nil, err
		}
	}
}

// Invalidate drops the memoized results of stage and every later
// stage, so the next Get consults the disk cache again. Computations
// in flight finish and deliver their result to their waiters.
func (p *Pipeline) Invalidate(stage Stage) {
	for _, later := range Stages() {
		if later >= stage {
			p.stages.Forget(later)
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// produce returns a bare context error only when ctx is done; every
// other failure is a *StageError.
func (p *Pipeline) produce(ctx context.Context, stage Stage) (*StagedJar, error) {
	var jar *StagedJar
	var err error
	if stage == Raw {
		jar, err = p.produceRaw(ctx)
	} else {
		var previous *StagedJar
		if previous, err = p.Get(ctx, stage-1); err == nil {
			jar, err = p.produceDerived(ctx, stage, previous)
		}
	}
	if err == nil {
		return jar, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) produceRaw(ctx context.Context) (*StagedJar, error) {
	path, err := p.raw.Locate(ctx)
	if err != nil {
		return nil, err
	}
	fingerprint, err := HashFile(path)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("raw jar located", "source", p.raw.String(), "path", path, "fingerprint", fingerprint.String())
	return &StagedJar{Stage: Raw, Path: path, Fingerprint: fingerprint}, nil
}

// step is one derived stage's transformation, bound to its inputs.
type step struct {
	identity string
	run      func(ctx context.Context, input, output string, classpath []string) error
}

func (p *Pipeline) step(ctx context.Context, stage Stage) (*step, error) {
	if from, to, ok := stage.namespaces(); ok {
		if p.mappings == nil {
			return nil, errors.New("no mappings configured")
		}
		table, err := p.mappings.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading mappings: %w", err)
		}
		transformer, err := p.remapper(table, from, to)
		if err != nil {
			return nil, err
		}
		return &step{identity: transformer.Identity(), run: transformer.Transform}, nil
	}
	if p.decompiler == nil {
		return nil, errors.New("no decompiler configured")
	}
	decompiler := p.decompiler
	return &step{
		identity: decompiler.Identity(),
		run: func(ctx context.Context, input, output string, classpath []string) error {
			return decompiler.Decompile(ctx, input, classpath, output)
		},
	}, nil
}

func (p *Pipeline) produceDerived(ctx context.Context, stage Stage, previous *StagedJar) (*StagedJar, error) {
	step, err := p.step(ctx, stage)
	if err != nil {
		return nil, err
	}
	var classpath []string
	if stage == Decompiled {
		if classpath, err = p.classpath.Wait(ctx); err != nil {
			return nil, fmt.Errorf("resolving classpath: %w", err)
		}
	}

	key := cacheKey(stage, previous.Fingerprint, append([]string{step.identity}, classpath...)...).String()
	directory := filepath.Join(p.cacheDir, stage.String(), key[:2])
	suffix := ".jar"
	if stage == Decompiled {
		suffix = "-sources.jar"
	}
	outputPath := filepath.Join(directory, key+suffix)
	manifestPath := filepath.Join(directory, key+".cbor")

	if jar, ok := p.lookup(stage, key, outputPath, manifestPath); ok {
		return jar, nil
	}

	temporaryDir := filepath.Join(p.cacheDir, "tmp")
	if err := os.MkdirAll(temporaryDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temporary directory: %w", err)
	}
	temporary, err := os.CreateTemp(temporaryDir, stage.String()+"-*"+suffix)
	if err != nil {
		return nil, err
	}
	temporaryPath := temporary.Name()
	temporary.Close()
	defer os.Remove(temporaryPath)

	start := p.clock.Now()
	p.logger.Info("building stage",
		"stage", stage.String(),
		"input", previous.Path,
		"transformer", step.identity,
	)
	if err := step.run(ctx, previous.Path, temporaryPath, classpath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransformation, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if _, err := os.Stat(outputPath); err == nil {
		// Another process finished the same key first.
		p.logger.Debug("discarding duplicate stage output", "stage", stage.String(), "path", outputPath)
	} else if err := os.Rename(temporaryPath, outputPath); err != nil {
		return nil, fmt.Errorf("promoting stage output: %w", err)
	}

	fingerprint, err := HashFile(outputPath)
	if err != nil {
		return nil, err
	}
	record := &manifest{
		Format:      manifestFormat,
		Stage:       stage.String(),
		Key:         key,
		Input:       previous.Fingerprint.String(),
		Output:      fingerprint.String(),
		Transformer: step.identity,
		Created:     p.clock.Now().UTC(),
	}
	if err := writeManifest(manifestPath, temporaryDir, record); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	p.logger.Info("stage built",
		"stage", stage.String(),
		"path", outputPath,
		"duration", clock.Since(p.clock, start),
	)
	return &StagedJar{Stage: stage, Path: outputPath, Fingerprint: fingerprint}, nil
}

// lookup returns the cached output for key if both the jar and a
// matching manifest are present.
func (p *Pipeline) lookup(stage Stage, key, outputPath, manifestPath string) (*StagedJar, bool) {
	if _, err := os.Stat(outputPath); err != nil {
		return nil, false
	}
	record, err := readManifest(manifestPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("ignoring unreadable stage manifest", "path", manifestPath, "error", err)
		}
		return nil, false
	}
	if record.Key != key || record.Stage != stage.String() {
		p.logger.Warn("ignoring mismatched stage manifest", "path", manifestPath)
		return nil, false
	}
	fingerprint, err := ParseFingerprint(record.Output)
	if err != nil {
		p.logger.Warn("ignoring stage manifest with bad fingerprint", "path", manifestPath, "error", err)
		return nil, false
	}
	p.logger.Debug("stage cache hit", "stage", stage.String(), "path", outputPath)
	return &StagedJar{Stage: stage, Path: outputPath, Fingerprint: fingerprint}, true
}
