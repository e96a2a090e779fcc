package loadgen

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("loadgen")

// throughputSampleSize bounds the reservoir of the throughput histogram, runs with
// more clients than this report a sampled mean
const throughputSampleSize = 4096

// IFileClient is the part of the file client used by the load generator
type IFileClient interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Upload(ctx context.Context, name string, data []byte) error
}

// Result is the outcome of one load run. The first block of fields keeps the
// names the benchmark tooling expects in its JSON output.
type Result struct {
	Operation     string  `json:"operation"`
	Volume        int     `json:"volume"`
	Pool          string  `json:"pool"`
	ClientWorkers int     `json:"client_workers"`
	TotalTime     float64 `json:"total_time"` // mean seconds per client, failures included
	Throughput    float64 `json:"throughput"` // mean bytes per second per client, failures count as 0
	ServerSuccess int64   `json:"server_success"`
	ServerFail    int64   `json:"server_fail"`

	WallTime   float64 `json:"wall_time"` // seconds from the first request to the last response
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyP99 float64 `json:"latency_p99"`
	Spread     Stats   `json:"spread"`
}

// Run starts cfg.Clients concurrent clients. Each sends one request for the dummy
// file of cfg.SizeMB MiB and the per client timings are aggregated into a Result.
// A failing client does not fail the run; Run only returns an error when the
// dummy file cannot be prepared.
func Run(ctx context.Context, c IFileClient, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if cfg.PoolLabel == "" {
		cfg.PoolLabel = DefaultPoolLabel
	}
	name := DummyName(cfg.SizeMB)

	payload, err := prepare(ctx, c, cfg, name)
	if err != nil {
		return Result{}, err
	}

	registry := metrics.NewRegistry()
	defer registry.UnregisterAll()
	latency := metrics.GetOrRegisterTimer("latency", registry)
	successes := metrics.GetOrRegisterCounter("success", registry)
	failures := metrics.GetOrRegisterCounter("fail", registry)
	throughput := metrics.GetOrRegisterHistogram("throughput", registry, metrics.NewUniformSample(throughputSampleSize))

	durations := make([]float64, cfg.Clients)
	expected := int64(cfg.SizeMB) << 20

	Logger.Infof("starting %d %s clients for %s", cfg.Clients, cfg.Operation, name)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			began := time.Now()
			n, err := runOnce(ctx, c, cfg.Operation, name, payload, expected)
			took := time.Since(began)

			latency.Update(took)
			durations[id] = took.Seconds()

			if err != nil {
				Logger.Warningf("client %d: %s %s failed: %v", id, cfg.Operation, name, err)
				failures.Inc(1)
				throughput.Update(0)
				return
			}
			successes.Inc(1)
			throughput.Update(int64(float64(n) / max(took.Seconds(), 1e-9)))
		}(i)
	}
	wg.Wait()

	wall := time.Since(start)
	ps := latency.Percentiles([]float64{0.5, 0.95, 0.99})
	spread := NewStats(durations)

	res := Result{
		Operation:     string(cfg.Operation),
		Volume:        cfg.SizeMB,
		Pool:          cfg.PoolLabel,
		ClientWorkers: cfg.Clients,
		TotalTime:     spread.Mean,
		Throughput:    throughput.Mean(),
		ServerSuccess: successes.Count(),
		ServerFail:    failures.Count(),
		WallTime:      wall.Seconds(),
		LatencyP50:    time.Duration(ps[0]).Seconds(),
		LatencyP95:    time.Duration(ps[1]).Seconds(),
		LatencyP99:    time.Duration(ps[2]).Seconds(),
		Spread:        spread,
	}
	Logger.Infof("%s run done: %d ok, %d failed in %s", cfg.Operation, res.ServerSuccess, res.ServerFail, wall)
	return res, nil
}

// prepare returns the upload payload, or makes the dummy file available on the
// server for downloads
func prepare(ctx context.Context, c IFileClient, cfg Config, name string) ([]byte, error) {
	if cfg.Operation == OpDownload && cfg.SeedDir != "" {
		_, err := EnsureDummyFile(cfg.SeedDir, cfg.SizeMB)
		return nil, err
	}

	path, err := EnsureDummyFile(cfg.LocalDir, cfg.SizeMB)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read dummy file: %w", err)
	}
	if cfg.Operation == OpUpload {
		return data, nil
	}

	if err := c.Upload(ctx, name, data); err != nil {
		return nil, fmt.Errorf("cannot seed %s on the server: %w", name, err)
	}
	return nil, nil
}

// runOnce performs a single operation and returns the number of bytes transferred
func runOnce(ctx context.Context, c IFileClient, op Operation, name string, payload []byte, expected int64) (int64, error) {
	switch op {
	case OpUpload:
		if err := c.Upload(ctx, name, payload); err != nil {
			return 0, err
		}
		return int64(len(payload)), nil
	case OpDownload:
		data, err := c.Get(ctx, name)
		if err != nil {
			return 0, err
		}
		if int64(len(data)) != expected {
			return 0, fmt.Errorf("downloaded %d bytes, expected %d", len(data), expected)
		}
		return int64(len(data)), nil
	default:
		return 0, fmt.Errorf("unknown operation %q", op)
	}
}
