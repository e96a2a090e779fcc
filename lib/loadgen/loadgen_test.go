package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memClient keeps uploaded files in memory, every failEvery-th call fails
type memClient struct {
	mu        sync.Mutex
	files     map[string][]byte
	calls     atomic.Int64
	failEvery int64
}

func newMemClient() *memClient {
	return &memClient{files: make(map[string][]byte)}
}

func (m *memClient) fail() bool {
	n := m.calls.Add(1)
	return m.failEvery > 0 && n%m.failEvery == 0
}

func (m *memClient) Get(_ context.Context, name string) ([]byte, error) {
	if m.fail() {
		return nil, errors.New("boom")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, errors.New("file not found: " + name)
	}
	return data, nil
}

func (m *memClient) Upload(_ context.Context, name string, data []byte) error {
	if m.fail() {
		return errors.New("boom")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = bytes.Clone(data)
	return nil
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Operation: OpUpload, SizeMB: 1, Clients: 1, LocalDir: "."}
	assert.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Config){
		"operation": func(c *Config) { c.Operation = "delete" },
		"size":      func(c *Config) { c.SizeMB = 0 },
		"clients":   func(c *Config) { c.Clients = 0 },
		"local dir": func(c *Config) { c.LocalDir = "" },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation(" UPLOAD ")
	require.NoError(t, err)
	assert.Equal(t, OpUpload, op)

	op, err = ParseOperation("download")
	require.NoError(t, err)
	assert.Equal(t, OpDownload, op)

	_, err = ParseOperation("list")
	assert.Error(t, err)
}

func TestEnsureDummyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files")

	path, err := EnsureDummyFile(dir, 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dummy_1MB.bin"), path)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, first, 1<<20)

	// an existing file of the right size is kept
	_, err = EnsureDummyFile(dir, 1)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// a file of the wrong size is replaced
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))
	_, err = EnsureDummyFile(dir, 1)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1<<20, info.Size())

	_, err = EnsureDummyFile(dir, 0)
	assert.Error(t, err)
}

func TestRunUpload(t *testing.T) {
	c := newMemClient()
	res, err := Run(context.Background(), c, Config{
		Operation: OpUpload,
		SizeMB:    1,
		Clients:   8,
		LocalDir:  t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, "upload", res.Operation)
	assert.Equal(t, 1, res.Volume)
	assert.Equal(t, DefaultPoolLabel, res.Pool)
	assert.Equal(t, 8, res.ClientWorkers)
	assert.EqualValues(t, 8, res.ServerSuccess)
	assert.EqualValues(t, 0, res.ServerFail)
	assert.Greater(t, res.TotalTime, 0.0)
	assert.Greater(t, res.Throughput, 0.0)
	assert.GreaterOrEqual(t, res.WallTime, res.Spread.Max)
	assert.LessOrEqual(t, res.LatencyP50, res.LatencyP99)

	assert.Len(t, c.files[DummyName(1)], 1<<20)
}

func TestRunDownloadSeedsServer(t *testing.T) {
	c := newMemClient()
	res, err := Run(context.Background(), c, Config{
		Operation: OpDownload,
		SizeMB:    1,
		Clients:   4,
		LocalDir:  t.TempDir(),
		PoolLabel: "goroutine",
	})
	require.NoError(t, err)

	assert.Equal(t, "download", res.Operation)
	assert.Equal(t, "goroutine", res.Pool)
	assert.EqualValues(t, 4, res.ServerSuccess)
	// one upload to seed the file and one download per client
	assert.EqualValues(t, 5, c.calls.Load())
}

func TestRunDownloadFromSeedDir(t *testing.T) {
	seed := t.TempDir()
	c := newMemClient()

	res, err := Run(context.Background(), c, Config{
		Operation: OpDownload,
		SizeMB:    1,
		Clients:   2,
		LocalDir:  t.TempDir(),
		SeedDir:   seed,
	})
	require.NoError(t, err)

	// the in memory client never saw the seed dir, so every download fails
	assert.EqualValues(t, 0, res.ServerSuccess)
	assert.EqualValues(t, 2, res.ServerFail)
	assert.Equal(t, 0.0, res.Throughput)
	assert.FileExists(t, filepath.Join(seed, DummyName(1)))
}

func TestRunCountsFailures(t *testing.T) {
	c := newMemClient()
	c.failEvery = 2

	res, err := Run(context.Background(), c, Config{
		Operation: OpUpload,
		SizeMB:    1,
		Clients:   10,
		LocalDir:  t.TempDir(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.ServerSuccess)
	assert.EqualValues(t, 5, res.ServerFail)
}

func TestRunInvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), newMemClient(), Config{Operation: OpUpload})
	assert.Error(t, err)
}

func TestNewStats(t *testing.T) {
	assert.Equal(t, Stats{}, NewStats(nil))

	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 5.0, s.Mean)
	assert.InDelta(t, 2.0, s.StdDeviation, 1e-9)
	assert.InDelta(t, 2.0/9.0, s.MinMaxRatio, 1e-9)

	assert.Equal(t, 1.0, NewStats([]float64{0, 0}).MinMaxRatio)
}

func TestCSVReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	r, err := OpenCSVReport(path)
	require.NoError(t, err)
	res := Result{Operation: "upload", Volume: 10, ClientWorkers: 5, TotalTime: 1.5, Throughput: 1024, ServerSuccess: 4, ServerFail: 1}
	require.NoError(t, r.Record(Row{Mode: "thread", ServerWorkers: 5, ServerSuccess: -1, ServerFail: -1, Result: res}))
	require.NoError(t, r.Close())

	// reopening continues the numbering without a second header
	r, err = OpenCSVReport(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(Row{Mode: "process", ServerWorkers: 50, ServerSuccess: 5, ServerFail: 0, Result: res}))
	require.NoError(t, r.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"No,Concurrency model,Operation,Volume,Client workers,Server workers,Time per client (s),Throughput per client (B/s),Client success,Client fail,Server success,Server fail\n"+
			"1,thread,upload,10 MB,5,5,1.5000,1024.00,4,1,4,1\n"+
			"2,process,upload,10 MB,5,50,1.5000,1024.00,4,1,5,0\n",
		string(raw))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Result{Operation: "download", Volume: 10, Pool: "thread", ClientWorkers: 1}))

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	for _, key := range []string{"operation", "volume", "pool", "client_workers", "total_time", "throughput", "server_success", "server_fail"} {
		assert.Contains(t, fields, key)
	}
}
