package runner

import (
	"context"
	"log/slog"

	"github.com/NSF-Swift/satellite-overhead/internal/ephemeris"
	"github.com/NSF-Swift/satellite-overhead/internal/grid"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// chunkTask is the plain data a chunk worker needs to rebuild its own grid
// and engine. Workers never receive the Runner's cached instances.
type chunkTask struct {
	sats        []model.Satellite
	reservation model.Reservation
	runtime     model.RuntimeSettings
	kind        ephemeris.Kind
}

func (r *Runner) task(sats []model.Satellite) chunkTask {
	return chunkTask{
		sats:        sats,
		reservation: r.cfg.Reservation,
		runtime:     r.cfg.Runtime,
		kind:        r.cfg.EngineKind,
	}
}

// chunks partitions the satellite list into contiguous chunks of
// ceil(N/concurrency) satellites. Partitioning is static; there is no
// work stealing.
func (r *Runner) chunks() [][]model.Satellite {
	sats := r.cfg.Satellites
	n := len(sats)
	if n == 0 {
		return nil
	}
	size := (n + r.cfg.Runtime.Concurrency - 1) / r.cfg.Runtime.Concurrency
	chunks := make([][]model.Satellite, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		chunks = append(chunks, sats[lo:hi])
	}
	return chunks
}

// runChunks dispatches one goroutine per chunk and gathers the results.
// The first chunk error cancels the remaining chunks and fails the whole
// call; there is no partial-result salvage. Results are concatenated in
// completion order.
func runChunks[T any](ctx context.Context, chunks [][]model.Satellite, run func(ctx context.Context, sats []model.Satellite) ([]T, error)) ([]T, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type chunkResult struct {
		items []T
		err   error
	}
	results := make(chan chunkResult, len(chunks))

	for _, chunk := range chunks {
		go func(sats []model.Satellite) {
			items, err := run(ctx, sats)
			results <- chunkResult{items: items, err: err}
		}(chunk)
	}

	var out []T
	var firstErr error
	for range chunks {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
				cancel()
			}
			continue
		}
		out = append(out, res.items...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// aboveHorizonChunk runs the visibility pipeline for one chunk on a freshly
// built grid and engine.
func aboveHorizonChunk(ctx context.Context, task chunkTask, logger *slog.Logger) ([]model.SatelliteTrajectory, error) {
	w := task.reservation.Window
	times := grid.Generate(w.Begin, w.End, task.runtime.TimeResolution)
	eng, err := ephemeris.New(task.kind, times, task.reservation.Facility, logger)
	if err != nil {
		return nil, err
	}
	return satelliteTrajectories(ctx, eng, task.sats, task.runtime.MinAltitudeDeg, w)
}

// beamCrossingChunk runs the visibility pipeline for one chunk, then masks
// each trajectory against the main beam using the antenna trajectory the
// orchestrator built once and passed in read-only.
func beamCrossingChunk(ctx context.Context, task chunkTask, ant model.AntennaTrajectory, logger *slog.Logger) ([]model.InterferenceResult, error) {
	trajs, err := aboveHorizonChunk(ctx, task, logger)
	if err != nil {
		return nil, err
	}
	return applyGeometric(trajs, ant, task.reservation)
}
