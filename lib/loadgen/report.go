package loadgen

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

// CSVHeader is the header row of a benchmark report
var CSVHeader = []string{
	"No",
	"Concurrency model",
	"Operation",
	"Volume",
	"Client workers",
	"Server workers",
	"Time per client (s)",
	"Throughput per client (B/s)",
	"Client success",
	"Client fail",
	"Server success",
	"Server fail",
}

// Row describes one benchmark run as written to a report
type Row struct {
	// Mode is the server pool backend (thread or process)
	Mode          string
	ServerWorkers int
	// ServerSuccess and ServerFail are the counts observed by the server, a
	// negative value means unknown and the client counts are used instead.
	ServerSuccess int64
	ServerFail    int64
	Result        Result
}

// CSVReport appends benchmark rows to a CSV file
type CSVReport struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
	n  int
}

// OpenCSVReport opens path for appending. The header is written when the file is new or empty.
func OpenCSVReport(path string) (*CSVReport, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open report %s: %w", path, err)
	}

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("cannot read existing report %s: %w", path, err)
	}

	r := &CSVReport{f: f, w: csv.NewWriter(f)}
	if len(rows) == 0 {
		if err := r.write(CSVHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
	} else {
		r.n = len(rows) - 1
	}
	return r, nil
}

// Record appends a row and flushes it to disk
func (r *CSVReport) Record(row Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.n++
	res := row.Result
	serverOK, serverFail := row.ServerSuccess, row.ServerFail
	if serverOK < 0 || serverFail < 0 {
		serverOK, serverFail = res.ServerSuccess, res.ServerFail
	}

	return r.write([]string{
		strconv.Itoa(r.n),
		row.Mode,
		res.Operation,
		fmt.Sprintf("%d MB", res.Volume),
		strconv.Itoa(res.ClientWorkers),
		strconv.Itoa(row.ServerWorkers),
		strconv.FormatFloat(res.TotalTime, 'f', 4, 64),
		strconv.FormatFloat(res.Throughput, 'f', 2, 64),
		strconv.FormatInt(res.ServerSuccess, 10),
		strconv.FormatInt(res.ServerFail, 10),
		strconv.FormatInt(serverOK, 10),
		strconv.FormatInt(serverFail, 10),
	})
}

// Close flushes and closes the file
func (r *CSVReport) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		_ = r.f.Close()
		return err
	}
	return r.f.Close()
}

func (r *CSVReport) write(record []string) error {
	if err := r.w.Write(record); err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}

// WriteJSON writes res as a single JSON line
func WriteJSON(w io.Writer, res Result) error {
	return json.NewEncoder(w).Encode(res)
}
