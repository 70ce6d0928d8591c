package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/limaJavier/timetabling/pkg/config"
	"github.com/limaJavier/timetabling/pkg/evaluator"
	"github.com/limaJavier/timetabling/pkg/logger"
	"github.com/limaJavier/timetabling/pkg/model"
	"github.com/limaJavier/timetabling/pkg/optimizer"
	"github.com/limaJavier/timetabling/pkg/report"
	"github.com/limaJavier/timetabling/pkg/timetable"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const MB float32 = 1024 * 1024

type ResultType int

const (
	feasible ResultType = iota
	infeasible
	unplaceable
)

var resultTypes = map[ResultType]string{
	feasible:    "feasible",
	infeasible:  "infeasible",
	unplaceable: "unplaceable",
}

type TestMetadata struct {
	Name       string
	Sessions   int
	Subjects   int
	Teachers   int
	Groups     int
	Classrooms int
	Timeslots  uint64
}

type BenchmarkResult struct {
	Test             TestMetadata
	Strategy         string
	Seed             uint64
	Duration         int64
	Memory           float32
	RepairIterations int
	AnnealAccepted   int
	HardCost         int
	SoftCost         float64
	GroupIdle        int
	TeacherIdle      int
	OrderPercentage  float64
	Result           ResultType
}

func main() {
	directoryPtr := flag.String("dir", "../../test/instances", "Directory holding the instance files")
	seedsPtr := flag.Int("seeds", 5, "Number of seeds (0..seeds-1) every instance is optimized with")
	strategyPtr := flag.String("strategy", "full", "Strategy to benchmark: \"repair\", \"anneal\" or \"full\"")
	outFilePathPtr := flag.String("out", "benchmark_results.csv", "Path to the CSV file where the results will be written")
	configFilePathPtr := flag.String("config", "", "Path to an optional configuration file")
	flag.Parse()
	strategy := strings.ToLower(*strategyPtr)

	strategyFunc, ok := optimizer.Strategies[strategy]
	if !ok {
		log.Fatalf("%v is not a valid strategy: %v", strategy, sortedStrategies())
	} else if *seedsPtr <= 0 {
		log.Fatalf("seeds must be positive: %v", *seedsPtr)
	}

	cfg, err := config.Load(*configFilePathPtr)
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	appLogger := logger.New(cfg.Log, os.Stderr)

	tests, instances := getTests(*directoryPtr)
	results := make([]BenchmarkResult, 0, len(tests)*(*seedsPtr))

	for i, test := range tests {
		for seed := range uint64(*seedsPtr) {
			fmt.Printf("Benchmarking test \"%v\" with strategy \"%v\" and seed \"%v\"\n", test.Name, strategy, seed)

			optimizerConfig := cfg.Optimizer
			optimizerConfig.Seed = seed
			result := measure(instances[i], strategy, strategyFunc, optimizerConfig, appLogger)
			result.Test = test
			results = append(results, result)
		}
	}

	file, err := os.Create(*outFilePathPtr)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := toCsv(file, results); err != nil {
		log.Panicf("cannot write CSV file: %v", err)
	}
}

func getTests(directory string) ([]TestMetadata, []model.Instance) {
	files, err := os.ReadDir(directory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	tests := make([]TestMetadata, 0, len(files))
	instances := make([]model.Instance, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		filename := filepath.Join(directory, file.Name())
		instance, err := model.InputFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		tests = append(tests, metadata(filename, instance))
		instances = append(instances, instance)
	}

	return tests, instances
}

func metadata(name string, instance model.Instance) TestMetadata {
	return TestMetadata{
		Name:       name,
		Sessions:   len(instance.Sessions),
		Subjects:   len(instance.Subjects),
		Teachers:   len(instance.Teachers),
		Groups:     len(instance.Groups),
		Classrooms: len(instance.Classrooms),
		Timeslots:  instance.Timeslots(),
	}
}

// measure runs initialization and the strategy on a fresh state, timing both and sampling the allocated memory
func measure(instance model.Instance, strategy string, strategyFunc optimizer.Strategy, cfg optimizer.Config, appLogger zerolog.Logger) BenchmarkResult {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := time.Now()

	result := BenchmarkResult{Strategy: strategy, Seed: cfg.Seed}

	state, err := timetable.Initialize(instance)
	if errors.Is(err, timetable.ErrUnplaceable) {
		result.Result = unplaceable
		result.Duration = time.Since(start).Milliseconds()
		return result
	} else if err != nil {
		log.Fatalf("an error occurred during timetable initialization: %v", err)
	}

	engine := optimizer.NewOptimizer(cfg, nil, appLogger, nil)
	outcome, err := strategyFunc(context.Background(), engine, state)
	if err != nil {
		log.Fatalf("an error occurred during timetable optimization: %v", err)
	}

	result.Duration = time.Since(start).Milliseconds()
	runtime.ReadMemStats(&after)
	result.Memory = float32(after.TotalAlloc-before.TotalAlloc) / MB

	stats := report.Collect(state)
	result.HardCost = stats.HardCost
	result.SoftCost = optimizer.SoftCost(state, cfg.Weights)
	result.GroupIdle = stats.GroupIdle.Total
	result.TeacherIdle = stats.TeacherIdle.Total
	result.OrderPercentage = stats.OrderPercentage
	if outcome.Repair != nil {
		result.RepairIterations = outcome.Repair.Iterations
	}
	if outcome.Anneal != nil {
		result.AnnealAccepted = outcome.Anneal.Accepted
	}

	result.Result = infeasible
	if evaluator.Feasible(state, state.Evaluator()) && evaluator.Verify(state.Assignments(), instance) {
		result.Result = feasible
	}
	return result
}

func toCsv(w io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(w)

	header := []string{"Test", "Sessions", "Subjects", "Teachers", "Groups", "Classrooms", "Timeslots", "Strategy", "Seed", "Duration(ms)", "Memory(MB)", "RepairIterations", "AnnealAccepted", "HardCost", "SoftCost", "GroupIdle", "TeacherIdle", "Order(%)", "Result"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	records := lo.Map(results, func(result BenchmarkResult, _ int) []string { return record(result) })
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("cannot write CSV records: %w", err)
	}
	return nil
}

func record(result BenchmarkResult) []string {
	return []string{
		result.Test.Name,
		fmt.Sprintf("%d", result.Test.Sessions),
		fmt.Sprintf("%d", result.Test.Subjects),
		fmt.Sprintf("%d", result.Test.Teachers),
		fmt.Sprintf("%d", result.Test.Groups),
		fmt.Sprintf("%d", result.Test.Classrooms),
		fmt.Sprintf("%d", result.Test.Timeslots),
		result.Strategy,
		fmt.Sprintf("%d", result.Seed),
		fmt.Sprintf("%d", result.Duration),
		fmt.Sprintf("%.1f", result.Memory),
		fmt.Sprintf("%d", result.RepairIterations),
		fmt.Sprintf("%d", result.AnnealAccepted),
		fmt.Sprintf("%d", result.HardCost),
		fmt.Sprintf("%.2f", result.SoftCost),
		fmt.Sprintf("%d", result.GroupIdle),
		fmt.Sprintf("%d", result.TeacherIdle),
		fmt.Sprintf("%.2f", result.OrderPercentage),
		resultTypes[result.Result],
	}
}

// sortedStrategies lists the strategy names accepted by -strategy
func sortedStrategies() []string {
	names := lo.Keys(optimizer.Strategies)
	slices.Sort(names)
	return names
}
