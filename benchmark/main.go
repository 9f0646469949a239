// Package main provides a performance benchmarking tool for the Groomer CLI.
// It measures execution times of the GitHub-backed commands across repositories
// of different backlog sizes, running each command several times with history
// disabled and with SQLite history, and writes the averages to CSV.
//
// Prerequisites:
// - groomer binary installed and available in PATH
// - GROOMER_GITHUB_TOKEN exported (search quota is 30 requests per minute)
//
// Usage: go run benchmark/main.go [owner/repo...]
//
//	With no arguments a fixed set of public repositories is used.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// BenchmarkResult holds the averages of one command on one repository.
type BenchmarkResult struct {
	Repository    string
	Command       string
	NoHistoryTime string
	HistoryTime   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout time.Duration
	Runs    int
	Repos   []string
	// Commands maps a short name to the groomer arguments placed before the repo.
	Commands map[string][]string
	Order    []string
}

func main() {
	config := BenchmarkConfig{
		Timeout: 3 * time.Minute,
		Runs:    3,
		Repos:   []string{"spf13/cobra", "sirupsen/logrus", "golang/go"},
		Commands: map[string][]string{
			"health": {"health"},
			"check":  {"check", "--min-score", "0"},
			"search": {"search", "--all", "--output", "csv", "--repo"},
		},
		Order: []string{"health", "check", "search"},
	}
	if len(os.Args) > 1 {
		config.Repos = os.Args[1:]
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the groomer binary and a token are available
func checkPrerequisites() error {
	if _, err := exec.LookPath("groomer"); err != nil {
		return errors.New("groomer binary not found in PATH")
	}
	if os.Getenv("GROOMER_GITHUB_TOKEN") == "" {
		return errors.New("GROOMER_GITHUB_TOKEN is not set")
	}
	return nil
}

// runBenchmarks executes every command against every repository
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d runs per phase\n",
		len(config.Repos), config.Timeout, config.Runs)

	for _, repo := range config.Repos {
		fmt.Printf("Benchmarking %s\n", repo)
		for _, name := range config.Order {
			args := append(append([]string{}, config.Commands[name]...), repo)
			results = append(results, runBenchmarkSuite(config, repo, name, args))
		}
	}
	return results
}

// runBenchmarkSuite runs a command with history disabled and then with SQLite history
func runBenchmarkSuite(config BenchmarkConfig, repo, name string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", name, repo)

	noHistory := average(runBenchmark(config, args, "none"))
	withHistory := average(runBenchmark(config, args, "sqlite"))

	fmt.Printf("  No-history average: %s, History average: %s\n", noHistory, withHistory)

	return BenchmarkResult{
		Repository:    repo,
		Command:       name,
		NoHistoryTime: noHistory,
		HistoryTime:   withHistory,
	}
}

// runBenchmark executes groomer config.Runs times and returns the successful durations
func runBenchmark(config BenchmarkConfig, args []string, historyBackend string) []float64 {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "groomer", args...)
		cmd.Env = append(os.Environ(), "GROOMER_HISTORY_BACKEND="+historyBackend)

		start := time.Now()
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start)
		cancel()

		if err != nil {
			fmt.Printf("  run %d failed: %v\n%s\n", run, err, output)
			continue
		}
		times = append(times, elapsed.Seconds())
	}
	return times
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
	filename := fmt.Sprintf("/tmp/groomer_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"repo", "cmd", "no_history_avg", "history_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Command, result.NoHistoryTime, result.HistoryTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by command
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, name := range config.Order {
		fmt.Printf("%s:\n", name)
		for _, result := range results {
			if result.Command == name {
				fmt.Printf("  %-20s: No-history: %s, History: %s\n", result.Repository, result.NoHistoryTime, result.HistoryTime)
			}
		}
	}
}
