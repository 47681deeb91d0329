package capture

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/snowstake/stakecam/internal/archive"
	"github.com/snowstake/stakecam/internal/forecast"
	"github.com/snowstake/stakecam/internal/imaging"
)

// Fetcher retrieves raw snapshot bytes from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SnowGate is the forecast gate: a boolean "snow expected soon" signal.
type SnowGate interface {
	ExpectsSnow(ctx context.Context, lat, lon float64) forecast.Verdict
}

// DecisionStore receives every produced decision for later inspection.
type DecisionStore interface {
	SaveDecision(d Decision)
}

// DefaultDistanceThreshold is the Hamming distance above which two
// fingerprints count as meaningfully different. Empirically chosen;
// configurable but the default should not be changed.
const DefaultDistanceThreshold = 3

// Config wires the engine's collaborators and policy knobs.
type Config struct {
	Fetcher Fetcher
	Gate    SnowGate // nil disables the forecast gate entirely
	Archive archive.Store
	Store   DecisionStore // optional

	// DistanceThreshold defaults to DefaultDistanceThreshold when <= 0.
	DistanceThreshold int

	// IOTimeout bounds each blocking call (forecast, fetch, archive).
	// Defaults to 12s when zero.
	IOTimeout time.Duration

	// Concurrency bounds parallel source evaluations. Defaults to 4.
	Concurrency int

	// LocalSnapshotDir, when set, additionally spools kept images to the
	// local filesystem (best effort).
	LocalSnapshotDir string

	// Now is a clock hook for tests. Defaults to time.Now.
	Now func() time.Time
}

// Engine evaluates sources independently and statelessly: each decision is
// a pure function of source config, candidate bytes, current archive
// contents, and the current forecast.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.DistanceThreshold <= 0 {
		cfg.DistanceThreshold = DefaultDistanceThreshold
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = 12 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg}
}

// Decide produces the keep/skip verdict for a fetched candidate. It never
// returns an error: every sub-failure degrades to "keep" (fail-open, a
// deliberate bias toward over-capturing rather than silently missing a
// storm).
func (e *Engine) Decide(ctx context.Context, src Source, candidate []byte) Decision {
	now := e.cfg.Now().UTC().Truncate(time.Minute)
	d := Decision{
		Source:    src.Name,
		Timestamp: now,
		Filename:  Filename(src.Name, now),
	}

	if e.cfg.Gate != nil && src.HasCoordinates() {
		gateCtx, cancel := context.WithTimeout(ctx, e.cfg.IOTimeout)
		v := e.cfg.Gate.ExpectsSnow(gateCtx, *src.Lat, *src.Lon)
		cancel()
		d.Forecast = &v

		// Snow on the way short-circuits the visual check: we want the
		// whole accumulation sequence regardless of similarity.
		if v.Snow {
			d.Keep = true
			d.Reason = ReasonSnowExpected
			return d
		}
	}

	refCtx, cancel := context.WithTimeout(ctx, e.cfg.IOTimeout)
	reference := archive.LatestImage(refCtx, e.cfg.Archive, src.Name)
	cancel()

	if reference == nil {
		d.Keep = true
		d.Reason = ReasonFirstCapture
		return d
	}

	candFP, err := imaging.FingerprintBytes(imaging.Crop(candidate, src.Crop))
	if err != nil {
		log.Printf("capture: %s: candidate fingerprint failed, keeping: %v", src.Name, err)
		d.Keep = true
		d.Reason = ReasonCompareFailed
		return d
	}
	refFP, err := imaging.FingerprintBytes(imaging.Crop(reference, src.Crop))
	if err != nil {
		log.Printf("capture: %s: reference fingerprint failed, keeping: %v", src.Name, err)
		d.Keep = true
		d.Reason = ReasonCompareFailed
		return d
	}

	dist, err := candFP.Distance(refFP)
	if err != nil {
		log.Printf("capture: %s: distance failed, keeping: %v", src.Name, err)
		d.Keep = true
		d.Reason = ReasonCompareFailed
		return d
	}
	d.Distance = &dist

	if dist > e.cfg.DistanceThreshold {
		d.Keep = true
		d.Reason = ReasonSceneChanged
	} else {
		d.Reason = ReasonNearDuplicate
	}
	return d
}

// RunCycle evaluates every source with bounded concurrency and returns the
// decisions produced. Sources whose candidate image cannot be fetched yield
// no decision; they are logged and the cycle continues. Cancellation
// between sources is safe: each source's writes are self-contained.
func (e *Engine) RunCycle(ctx context.Context, sources []Source) []Decision {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		decisions []Decision
	)
	sem := make(chan struct{}, e.cfg.Concurrency)

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		src := src
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			d, ok := e.evaluate(ctx, src)
			if !ok {
				return
			}

			mu.Lock()
			decisions = append(decisions, d)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return decisions
}

// evaluate runs one source end to end: fetch, decide, archive. The bool is
// false only when no candidate could be fetched.
func (e *Engine) evaluate(ctx context.Context, src Source) (Decision, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.IOTimeout)
	candidate, err := e.cfg.Fetcher.Fetch(fetchCtx, src.SnapshotURL)
	cancel()
	if err != nil {
		log.Printf("capture: %s: fetch failed: %v", src.Name, err)
		return Decision{}, false
	}

	d := e.Decide(ctx, src, candidate)

	if d.Keep {
		e.spoolLocal(d.Filename, candidate)

		upCtx, cancel := context.WithTimeout(ctx, e.cfg.IOTimeout)
		err := e.cfg.Archive.Upload(upCtx, ObjectPath(src.Name, d.Timestamp), candidate)
		cancel()
		if err != nil {
			log.Printf("capture: %s: upload failed for %s: %v", src.Name, d.Filename, err)
		} else {
			log.Printf("capture: %s: kept %s (%s)", src.Name, d.Filename, d.Reason)
		}
	} else {
		log.Printf("capture: %s: skipped (%s)", src.Name, d.Reason)
	}

	if e.cfg.Store != nil {
		e.cfg.Store.SaveDecision(d)
	}
	return d, true
}

// spoolLocal best-effort writes a kept snapshot to the local spool dir.
func (e *Engine) spoolLocal(filename string, data []byte) {
	if e.cfg.LocalSnapshotDir == "" {
		return
	}
	if err := os.MkdirAll(e.cfg.LocalSnapshotDir, 0o755); err != nil {
		log.Printf("capture: spool dir: %v", err)
		return
	}
	path := filepath.Join(e.cfg.LocalSnapshotDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("capture: spool write failed: %v", err)
	}
}
