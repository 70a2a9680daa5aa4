// Package engine runs the profile reduction pipeline: simplification,
// deviation ranking, segmentation at forced breakpoints and per-segment pipe
// properties, and writes the export bundle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/tlprofile/internal/export"
	"github.com/chrissnell/tlprofile/internal/pipe"
	"github.com/chrissnell/tlprofile/internal/profile"
	"github.com/chrissnell/tlprofile/internal/profilecache"
	"github.com/chrissnell/tlprofile/internal/segment"
	"github.com/chrissnell/tlprofile/internal/simplify"
)

// Options selects what Analyze does with a profile
type Options struct {
	LineID string

	// Epsilon is the simplification tolerance in ElevationUnit
	Epsilon float64

	DistanceUnit  profile.DistanceUnit
	ElevationUnit profile.ElevationUnit

	// BreakIndices are resolved original-profile indices to split at
	BreakIndices []int
	// BreakAt are distances in DistanceUnit, snapped to the nearest original point
	BreakAt []float64
	// UseFeatures splits at every valve and station
	UseFeatures bool
	// UseSizeChanges splits at detected pipe size changes
	UseSizeChanges bool

	SizeChangeMinRun float64
	MinSegmentPoints int
	TopN             int

	Dense export.DenseOptions
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Epsilon:          1,
		DistanceUnit:     profile.Kilometers,
		ElevationUnit:    profile.ElevationMeters,
		SizeChangeMinRun: segment.DefaultMinRun,
		MinSegmentPoints: 2,
		TopN:             10,
		Dense:            export.DefaultDenseOptions(),
	}
}

// Result holds every product of one analysis
type Result struct {
	LineID     string
	Original   profile.Profile
	Simplified profile.Profile
	Kept       []bool
	Deviations []simplify.Deviation
	Markers    []segment.Marker

	// Breaks are the original indices forced to be kept and split at
	Breaks []int
	// Dropped are breakpoint OrigRowIDs that could not split a segment
	Dropped []int

	Segments []segment.Segment
	Pipes    []export.Pipe
	Fits     []pipe.Integration
}

// Engine analyzes profiles. It is safe for concurrent use.
type Engine struct {
	logger *zap.SugaredLogger
	cache  *profilecache.Cache
}

// New creates an Engine. cache may be nil to disable profile caching.
func New(logger *zap.SugaredLogger, cache *profilecache.Cache) *Engine {
	return &Engine{
		logger: logger,
		cache:  cache,
	}
}

// LoadCSV returns the normalized profile of lineID, reading r only on a cache miss
func (e *Engine) LoadCSV(lineID string, r io.Reader) (profile.Profile, error) {
	return e.load(lineID, func() (profile.Profile, error) {
		return profile.ReadCSV(r)
	})
}

// LoadPoints returns the normalized profile of lineID, normalizing points only on a cache miss
func (e *Engine) LoadPoints(lineID string, points []profile.Point) (profile.Profile, error) {
	return e.load(lineID, func() (profile.Profile, error) {
		return profile.Normalize(points)
	})
}

func (e *Engine) load(lineID string, read func() (profile.Profile, error)) (profile.Profile, error) {
	if e.cache != nil && lineID != "" {
		if p, ok := e.cache.Get(lineID); ok {
			e.logger.Debugw("profile cache hit", "line", lineID, "points", len(p))
			return p, nil
		}
	}

	p, err := read()
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for line %q: %w", lineID, err)
	}

	if e.cache != nil && lineID != "" {
		if evicted := e.cache.Put(lineID, p); evicted {
			e.logger.Debugw("profile cache evicted a line", "size", e.cache.Len())
		}
	}
	return p, nil
}

// Analyze simplifies original, ranks deviations, splits the simplified
// profile into segments and computes each segment's OD and wall thickness.
// original must be normalized (see profile.Normalize).
func (e *Engine) Analyze(ctx context.Context, original profile.Profile, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(original) == 0 {
		return nil, profile.NewDataError("analyze", profile.ErrEmptyProfile, "line %q", opts.LineID)
	}

	res := &Result{LineID: opts.LineID, Original: original}

	if opts.UseSizeChanges {
		res.Markers = segment.DetectSizeChangesMinRun(original, opts.SizeChangeMinRun)
		e.logger.Debugw("detected pipe size changes", "line", opts.LineID, "markers", len(res.Markers))
	}

	breaks, err := e.breakIndices(original, opts, res.Markers)
	if err != nil {
		return nil, err
	}
	res.Breaks = breaks

	epsilon := opts.ElevationUnit.ToMeters(opts.Epsilon)
	res.Kept, err = simplify.Simplify(original, epsilon, profile.MustKeepMask(len(original), breaks))
	if err != nil {
		return nil, fmt.Errorf("failed to simplify line %q: %w", opts.LineID, err)
	}
	if res.Simplified, err = original.Subset(res.Kept); err != nil {
		return nil, err
	}
	e.logger.Infow("simplified profile", "line", opts.LineID, "epsilon_m", epsilon, "summary", simplify.Summary(res.Kept))

	if opts.TopN > 0 {
		if res.Deviations, err = simplify.TopDeviations(original, res.Kept, opts.TopN); err != nil {
			return nil, fmt.Errorf("failed to rank deviations: %w", err)
		}
	}

	forced := make([]int, len(breaks))
	for i, idx := range breaks {
		forced[i] = original[idx].OrigRowID
	}
	res.Segments = segment.Build(res.Simplified, forced)
	res.Dropped = segment.DroppedBreaks(res.Simplified, forced)
	if len(res.Dropped) > 0 {
		e.logger.Debugw("breakpoints dropped", "line", opts.LineID, "orig_row_ids", res.Dropped)
	}
	for i, seg := range res.Segments {
		if len(seg.Points) < opts.MinSegmentPoints {
			e.logger.Warnw("short segment", "line", opts.LineID, "segment", i, "points", len(seg.Points))
		}
	}

	if err := e.computePipes(ctx, res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// breakIndices collects every forced breakpoint as a sorted, unique original index
func (e *Engine) breakIndices(original profile.Profile, opts Options, markers []segment.Marker) ([]int, error) {
	set := make(map[int]struct{})

	for _, idx := range opts.BreakIndices {
		if idx < 0 || idx >= len(original) {
			return nil, profile.NewDataError("break indices", nil, "index %d outside profile of %d points", idx, len(original))
		}
		set[idx] = struct{}{}
	}
	for _, d := range opts.BreakAt {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, profile.NewDataError("break distances", profile.ErrNonFinite, "distance %v", d)
		}
		set[original.SnapToIndex(opts.DistanceUnit.ToMeters(d))] = struct{}{}
	}
	if opts.UseFeatures {
		for _, idx := range original.FeatureIndices() {
			set[idx] = struct{}{}
		}
	}
	for _, idx := range segment.MarkerIndices(markers) {
		set[idx] = struct{}{}
	}

	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

// computePipes fills res.Pipes and res.Fits. Segments are independent so
// they are computed in parallel; results keep segment order.
func (e *Engine) computePipes(ctx context.Context, res *Result, opts Options) error {
	filled := profile.FillPipeSize(res.Original)
	res.Pipes = make([]export.Pipe, len(res.Segments))
	res.Fits = make([]pipe.Integration, len(res.Segments))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, seg := range res.Segments {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, fit, err := e.segmentPipe(res.Original, filled, seg, opts)
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			res.Pipes[i] = p
			res.Fits[i] = fit
			return nil
		})
	}

	return g.Wait()
}

func (e *Engine) segmentPipe(original profile.Profile, filled []float64, seg segment.Segment, opts Options) (export.Pipe, pipe.Integration, error) {
	p := export.Pipe{
		StartDistanceM: seg.StartDistance(),
		LengthM:        seg.Length(),
		Points:         seg.Points,
	}

	rows, strategy := pipe.MatchSourceRows(original, pipe.Span{
		StartDistance:  seg.StartDistance(),
		EndDistance:    seg.EndDistance(),
		FirstOrigRowID: seg.FirstOrigRowID(),
		LastOrigRowID:  seg.LastOrigRowID(),
		SliceStart:     seg.FirstOrigRowID(),
		SliceEnd:       seg.LastOrigRowID(),
	})
	if strategy != pipe.ByDistanceRange {
		e.logger.Debugw("segment rows matched by fallback", "line", opts.LineID, "start", p.StartDistanceM, "strategy", strategy)
	}

	od, err := pipe.MeanOD(rows, filled)
	if err != nil {
		return p, pipe.Integration{}, err
	}
	p.ODInches = od

	fit, err := pipe.Integrate(pipe.SamplesFrom(rows), p.LengthM, od)
	switch {
	case errors.Is(err, pipe.ErrNoWallData):
		e.logger.Warnw("no wall thickness data for segment", "line", opts.LineID, "start", p.StartDistanceM)
		p.WT = math.NaN()
		return p, fit, nil
	case err != nil:
		return p, fit, err
	}

	if fit.Method == pipe.MethodEstimate || fit.Method == pipe.MethodMeanFallback {
		e.logger.Debugw("wall thickness fallback", "line", opts.LineID, "start", p.StartDistanceM, "method", fit.Method)
	}
	p.WT = opts.DistanceUnit.WallThicknessFromMM(fit.ThicknessMM)
	return p, fit, nil
}

// Bundle assembles the export bundle of res
func (e *Engine) Bundle(res *Result, opts Options) export.Bundle {
	return export.Bundle{
		LineID:           res.LineID,
		Epsilon:          opts.Epsilon,
		OriginalPoints:   len(res.Original),
		SimplifiedPoints: len(res.Simplified),
		DistanceUnit:     opts.DistanceUnit,
		ElevationUnit:    opts.ElevationUnit,
		Pipes:            res.Pipes,
		Dense:            export.BuildDenseWT(res.Original, opts.DistanceUnit, opts.Dense),
	}
}

// Export writes the zip bundle of res to w
func (e *Engine) Export(ctx context.Context, w io.Writer, res *Result, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := e.Bundle(res, opts)
	if err := export.WriteBundle(w, b); err != nil {
		return fmt.Errorf("failed to write export bundle: %w", err)
	}
	e.logger.Infow("exported bundle", "line", res.LineID, "segments", len(b.Pipes), "dense_rows", len(b.Dense.Rows))
	return nil
}
