// Package main provides a performance benchmarking tool for the Waypoint CLI.
// It generates synthetic legacy trees of increasing size, measures scan and
// start times against the in-memory and SQLite stores, and writes the
// averages to a CSV file for documentation.
//
// Prerequisites:
// - waypoint binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where synthetic trees and databases are created
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the averaged timings of one tree size.
type BenchmarkResult struct {
	Tree       string
	Files      int
	ScanMemory string
	ScanSQLite string
	Start      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir string
	Timeout time.Duration
	Workers int
	Runs    int
	Trees   map[string]int // Tree name to number of modules
	Order   []string
}

// Each module contributes a page, a code-behind, a service, a repository and a model.
const filesPerModule = 5

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir: os.Args[1],
		Timeout: 5 * time.Minute,
		Workers: 8,
		Runs:    3,
		Trees:   map[string]int{"small": 40, "medium": 400, "large": 2000},
		Order:   []string{"small", "medium", "large"},
	}

	if _, err := exec.LookPath("waypoint"); err != nil {
		fmt.Printf("Prerequisites check failed: waypoint binary not found in PATH\n")
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// generateTree writes a synthetic three-tier application with the given number of modules.
func generateTree(root string, modules int) error {
	for i := range modules {
		name := fmt.Sprintf("Module%04d", i)
		files := map[string]string{
			filepath.Join("Web", name+".aspx"):    fmt.Sprintf(`<%%@ Page Language="C#" CodeBehind="%s.aspx.cs" Inherits="Web.%s" %%>`, name, name),
			filepath.Join("Web", name+".aspx.cs"): fmt.Sprintf("public partial class %s : Page { private %sService _svc; }", name, name),
			filepath.Join("BLL", name+"Service.cs"): fmt.Sprintf(
				"public class %sService { private %sRepository _repo; public %sEntity Get(int id) { if (id > 0) { return _repo.Find(id); } return null; } }",
				name, name, name),
			filepath.Join("DAL", name+"Repository.cs"): fmt.Sprintf(
				"public class %sRepository { public %sEntity Find(int id) { using (var cmd = new SqlCommand()) { return null; } } }",
				name, name),
			filepath.Join("Models", name+"Entity.cs"): fmt.Sprintf("public class %sEntity { public int Id { get; set; } }", name),
		}
		for rel, content := range files {
			abs := filepath.Join(root, rel)
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// runBenchmarks executes all benchmark phases across configured trees
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d trees, %v timeout, %d workers, %d runs\n",
		len(config.Trees), config.Timeout, config.Workers, config.Runs)

	for _, tree := range config.Order {
		modules := config.Trees[tree]
		treePath := filepath.Join(config.WorkDir, tree)
		if err := os.RemoveAll(treePath); err != nil {
			return nil, err
		}
		if err := generateTree(treePath, modules); err != nil {
			return nil, fmt.Errorf("failed to generate %s tree: %w", tree, err)
		}
		fmt.Printf("Benchmarking %s (%d files)\n", tree, modules*filesPerModule)

		result := BenchmarkResult{Tree: tree, Files: modules * filesPerModule}

		var memTimes, scanTimes, startTimes []float64
		for run := 1; run <= config.Runs; run++ {
			if d, ok := runWaypoint(config, treePath, nil, "scan", "--store-backend", "none"); ok {
				memTimes = append(memTimes, d)
			}

			dbEnv := []string{
				"WAYPOINT_STORE_BACKEND=sqlite",
				"WAYPOINT_STORE_DB_CONNECT=" + filepath.Join(config.WorkDir, fmt.Sprintf("%s-%d.db", tree, run)),
			}
			if d, ok := runWaypoint(config, treePath, dbEnv, "scan"); ok {
				scanTimes = append(scanTimes, d)
			}
			if d, ok := runWaypoint(config, treePath, dbEnv, "start", "--create-outputs=false"); ok {
				startTimes = append(startTimes, d)
			}
		}

		result.ScanMemory = average(memTimes)
		result.ScanSQLite = average(scanTimes)
		result.Start = average(startTimes)
		fmt.Printf("  Scan (memory): %s, Scan (sqlite): %s, Start: %s\n", result.ScanMemory, result.ScanSQLite, result.Start)
		results = append(results, result)
	}

	return results, nil
}

// runWaypoint executes one waypoint command and returns its duration in seconds.
func runWaypoint(config BenchmarkConfig, dir string, env []string, args ...string) (float64, bool) {
	args = append(args, "--workers", fmt.Sprint(config.Workers), "--log-level", "warn")
	cmd := exec.Command("waypoint", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	start := time.Now()
	done := make(chan bool)
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.CombinedOutput()
		done <- true
	}()

	select {
	case <-done:
		if cmdErr == nil && isSuccess(output, args[0]) {
			return time.Since(start).Seconds(), true
		}
		fmt.Printf("  %s failed: %v\n", args[0], cmdErr)
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		<-done
	}
	return 0, false
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)
	switch command {
	case "scan":
		return strings.Contains(outputStr, "Scan completed in")
	case "start":
		return strings.Contains(outputStr, "Batches")
	default:
		return true
	}
}

func average(times []float64) string {
	if len(times) == 0 {
		return "FAILED"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/waypoint_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"tree", "files", "scan_memory", "scan_sqlite", "start"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Tree, fmt.Sprint(result.Files), result.ScanMemory, result.ScanSQLite, result.Start}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s (%5d files): Scan memory: %s, Scan sqlite: %s, Start: %s\n",
			result.Tree, result.Files, result.ScanMemory, result.ScanSQLite, result.Start)
	}
}
