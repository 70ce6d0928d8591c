package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/limaJavier/timetabling/pkg/config"
	"github.com/limaJavier/timetabling/pkg/evaluator"
	"github.com/limaJavier/timetabling/pkg/logger"
	"github.com/limaJavier/timetabling/pkg/metrics"
	"github.com/limaJavier/timetabling/pkg/model"
	"github.com/limaJavier/timetabling/pkg/optimizer"
	"github.com/limaJavier/timetabling/pkg/report"
	"github.com/limaJavier/timetabling/pkg/store"
	"github.com/limaJavier/timetabling/pkg/timetable"
	"github.com/samber/lo"
)

const (
	exitFeasible   = 10
	exitUnverified = 15
	exitInfeasible = 20
)

func main() {
	// Define arguments
	filePathPtr := flag.String("file", "", "Path to the input file")
	strategyPtr := flag.String("strategy", "full", `Strategy to build the timetable. Allowed values are:
- "repair" (only removes hard-constraint violations),
- "anneal" (only lowers the soft cost of the initial placement) and
- "full" (repair followed by annealing), where "full" is the default`)
	seedPtr := flag.Uint64("seed", 0, "Seed of the random generator; when omitted the configured seed is used")
	outFilePathPtr := flag.String("out", "", "Path to the file where the solution JSON will be written")
	pdfFilePathPtr := flag.String("pdf", "", "Path to the file where the PDF timetable will be written")
	metricsFilePathPtr := flag.String("metrics", "", "Path to the file where the metrics will be written in Prometheus text format")
	configFilePathPtr := flag.String("config", "", "Path to an optional configuration file (YAML, JSON or TOML)")
	storePtr := flag.Bool("store", false, "Persist the solution in the configured PostgreSQL database")
	flag.Parse()
	strategy := strings.ToLower(*strategyPtr)
	filePath := *filePathPtr

	// Validate arguments
	validStrategies := lo.Keys(optimizer.Strategies)
	slices.Sort(validStrategies)
	if !slices.Contains(validStrategies, strategy) {
		log.Fatalf("%v is not a valid strategy: %v", strategy, validStrategies)
	} else if filePath == "" {
		log.Fatal("an input file must be specified")
	}

	cfg, err := config.Load(*configFilePathPtr)
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	if seedSet() {
		cfg.Optimizer.Seed = *seedPtr
	}

	appLogger := logger.New(cfg.Log, os.Stderr)
	collector := metrics.NewCollector()

	// Extract input
	start := time.Now()
	instance, err := model.InputFromJson(filePath)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}
	if err := model.CheckCapacity(instance); err != nil {
		fmt.Println(err)
		os.Exit(exitInfeasible)
	}
	state, err := timetable.Initialize(instance)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitInfeasible)
	}
	collector.ObservePhase("initialize", time.Since(start))

	// Optimize timetable
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := optimizer.NewOptimizer(cfg.Optimizer, nil, appLogger, collector)
	result, err := optimizer.Strategies[strategy](ctx, engine, state)
	if errors.Is(err, context.Canceled) {
		appLogger.Warn().Msg("optimization interrupted, reporting the current timetable")
	} else if err != nil {
		log.Fatalf("an error occurred during timetable optimization: %v", err)
	}

	feasible := evaluator.Feasible(state, state.Evaluator())
	collector.ObserveResult(result, feasible)

	// Report timetable
	labels := report.Labels{HoursPerDay: instance.HoursPerDay, FirstHour: cfg.Report.FirstHour}
	stats := report.Collect(state)
	rows := report.Rows(instance, state.Assignments(), labels)
	if err := report.WriteStatistics(os.Stdout, stats, labels); err != nil {
		log.Fatalf("cannot write statistics: %v", err)
	}
	fmt.Println()
	if err := report.WriteTimetable(os.Stdout, rows); err != nil {
		log.Fatalf("cannot write timetable: %v", err)
	}

	// Verify timetable correctness
	if feasible && !evaluator.Verify(state.Assignments(), instance) {
		appLogger.Error().Msg("timetable failed independent verification")
		os.Exit(exitUnverified)
	}

	solution := store.NewSolution(instanceName(filePath), strategy, cfg.Optimizer.Seed, state, result, cfg.Optimizer.Weights)
	if *outFilePathPtr != "" {
		if err := solution.WriteJSON(*outFilePathPtr); err != nil {
			log.Fatalf("an error occurred while writing the solution: %v", err)
		}
	}
	if *pdfFilePathPtr != "" {
		content, err := report.NewPDFRenderer(cfg.Report.Title).Render(instance, rows, labels)
		if err != nil {
			log.Fatalf("cannot render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfFilePathPtr, content, 0666); err != nil {
			log.Fatalf("an error occurred while writing the pdf: %v", err)
		}
	}
	if *metricsFilePathPtr != "" {
		if err := collector.WriteToTextfile(*metricsFilePathPtr); err != nil {
			log.Fatalf("an error occurred while writing the metrics: %v", err)
		}
	}
	if *storePtr {
		if err := persist(context.Background(), cfg.Database, solution); err != nil {
			log.Fatalf("cannot store the solution: %v", err)
		}
		appLogger.Info().Str("run", solution.ID).Msg("solution stored")
	}

	if !feasible {
		os.Exit(exitInfeasible)
	}
	os.Exit(exitFeasible)
}

func persist(ctx context.Context, cfg config.DatabaseConfig, solution *store.Solution) error {
	db, err := store.NewPostgres(cfg)
	if err != nil {
		return fmt.Errorf("cannot connect to the database: %w", err)
	}
	defer db.Close()

	solutions := store.NewPostgresStore(db)
	if err := solutions.EnsureSchema(ctx); err != nil {
		return err
	}
	return solutions.Save(ctx, solution)
}

func seedSet() bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			set = true
		}
	})
	return set
}

func instanceName(filePath string) string {
	return strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
}
