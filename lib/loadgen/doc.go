// Package loadgen is a load generator for the file server. It starts a number
// of concurrent clients that each upload or download a dummy file of a fixed
// size once, and aggregates their timings.
//
// The aggregation matches the columns of the benchmark reports: TotalTime
// is the mean duration per client and Throughput the mean bytes per second per
// client, where a failed client counts with a throughput of zero. On top of
// that a run reports the wall time, latency percentiles and the spread of the
// client durations, collected in a go-metrics registry.
//
// Usage Example:
//
//	c, _ := client.NewFileClient(config, tcp.NewTCPClientConnector())
//	res, err := loadgen.Run(ctx, c, loadgen.Config{
//	  Operation: loadgen.OpDownload,
//	  SizeMB:    10,
//	  Clients:   50,
//	  LocalDir:  ".",
//	})
//
// Results can be printed as JSON (WriteJSON) or appended to a CSV report
// (OpenCSVReport), which is what the bench command does for every cell of its
// test matrix.
package loadgen
