package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/tlprofile/internal/engine"
	"github.com/chrissnell/tlprofile/internal/export"
	"github.com/chrissnell/tlprofile/internal/profile"
	"github.com/chrissnell/tlprofile/internal/profilecache"
	"github.com/chrissnell/tlprofile/pkg/config"
)

// App binds configuration to an engine
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
	engine *engine.Engine
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cache, err := profilecache.New(cfg.Cache.Size)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		engine: engine.New(logger, cache),
	}, nil
}

// Engine returns the application's engine
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Options returns the engine options for lineID with per-line overrides applied
func (a *App) Options(lineID string) (engine.Options, error) {
	distUnit, err := profile.ParseDistanceUnit(a.cfg.Units.Distance)
	if err != nil {
		return engine.Options{}, err
	}
	elevUnit, err := profile.ParseElevationUnit(a.cfg.Units.Elevation)
	if err != nil {
		return engine.Options{}, err
	}

	line := a.cfg.Line(lineID)
	return engine.Options{
		LineID:           lineID,
		Epsilon:          line.Epsilon,
		DistanceUnit:     distUnit,
		ElevationUnit:    elevUnit,
		BreakAt:          line.BreakAt,
		UseSizeChanges:   line.SizeChanges,
		SizeChangeMinRun: a.cfg.Segmentation.SizeChangeMinRun,
		MinSegmentPoints: a.cfg.Segmentation.MinSegmentPoints,
		TopN:             a.cfg.Simplification.TopN,
		Dense: export.DenseOptions{
			MaxRows:           a.cfg.Export.DenseMaxRows,
			InterpolateGapMax: a.cfg.Export.InterpolateGapMax,
			UniformFraction:   a.cfg.Export.UniformFraction,
		},
	}, nil
}

// Analyze loads the profile CSV at input and analyzes it as lineID
func (a *App) Analyze(ctx context.Context, input string, opts engine.Options) (*engine.Result, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	p, err := a.engine.LoadCSV(opts.LineID, f)
	if err != nil {
		return nil, err
	}
	return a.engine.Analyze(ctx, p, opts)
}

// Run analyzes input and writes the export bundle to output. It stops early
// on SIGINT or SIGTERM and removes a partially written bundle.
func (a *App) Run(ctx context.Context, input, output string, opts engine.Options) (err error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := a.Analyze(ctx, input, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(output)
		}
	}()

	if err := a.engine.Export(ctx, f, res, opts); err != nil {
		return err
	}

	a.logger.Infof("wrote %d pipes for line %s to %s", len(res.Pipes), opts.LineID, output)
	return nil
}
