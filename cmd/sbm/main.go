package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jmorrell/sbm-service/pkg/parser"
	"github.com/jmorrell/sbm-service/pkg/sbm"
)

func main() {
	nodesPath := flag.String("nodes", "", "node list file (id type per line)")
	edgesPath := flag.String("edges", "", "edge list file (from to per line)")
	allowedPath := flag.String("allowed", "", "optional allowed type pairs file")
	configPath := flag.String("config", "", "optional config file (yaml/json/toml)")
	algorithm := flag.String("algorithm", "collapse", "algorithm to run: sweep or collapse")
	bEnd := flag.Int("b-end", 0, "target block count for collapse (default: number of types)")
	outputDir := flag.String("output", "output", "directory for result files")
	prefix := flag.String("prefix", "sbm", "result file prefix")
	flag.Parse()

	if *nodesPath == "" || *edgesPath == "" {
		fmt.Fprintln(os.Stderr, "both -nodes and -edges are required")
		flag.Usage()
		os.Exit(1)
	}

	cfg := sbm.NewConfig()
	if *configPath != "" {
		if err := cfg.LoadFromFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	logger := cfg.CreateLogger()

	input, err := parser.ParseGraphInput(*nodesPath, *edgesPath, *allowedPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse input")
	}

	network, err := sbm.NewNetworkWithNodes(
		input.IDs, input.Types, input.EdgesA, input.EdgesB,
		input.TypeNames(), cfg.RandomSeed(), input.AllowedA, input.AllowedB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build network")
	}
	network.SetLogger(logger)

	logger.Info().
		Int("nodes", network.NNodes()).
		Int("edges", network.NEdges()).
		Int("types", network.NTypes()).
		Msg("Network loaded")

	ctx := context.Background()
	var sweepResult *sbm.SweepResult
	var collapseResult *sbm.CollapseResult

	switch *algorithm {
	case "sweep":
		if err := network.InitializeBlocks(-1); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize blocks")
		}
		sweepResult, err = network.MCMCSweep(ctx, 0, cfg.NSweeps(), cfg.Eps(),
			cfg.VariableNumBlocks(), cfg.TrackPairs(), cfg.EnableProgress())
		if err != nil {
			logger.Fatal().Err(err).Msg("MCMC sweep failed")
		}

	case "collapse":
		target := *bEnd
		if target == 0 {
			target = network.NTypes()
		}
		collapseResult, err = network.CollapseBlocks(ctx, 0, target,
			cfg.NChecksPerBlock(), cfg.NMCMCSweeps(), cfg.Sigma(), cfg.CollapseEps(),
			cfg.ReportAllSteps(), cfg.AllowExhaustive())
		if err != nil {
			logger.Fatal().Err(err).Msg("Collapse failed")
		}

	default:
		logger.Fatal().Str("algorithm", *algorithm).Msg("Unknown algorithm")
	}

	entropy, err := network.Entropy(0)
	if err != nil {
		logger.Fatal().Err(err).Msg("Entropy computation failed")
	}
	state, err := network.State()
	if err != nil {
		logger.Fatal().Err(err).Msg("State export failed")
	}

	writer := sbm.NewFileWriter()
	if err := writer.WriteAll(state, sweepResult, collapseResult, *outputDir, *prefix); err != nil {
		logger.Fatal().Err(err).Msg("Failed to write results")
	}

	blocks, _ := network.NNodesAtLevel(1)
	logger.Info().
		Float64("entropy", entropy).
		Int("blocks", blocks).
		Str("output", *outputDir).
		Msg("Inference finished")
}
