package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/catalog"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/config"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/depth"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/rpc"
)

// probe is a one-shot CLI: it runs a single depth calculation and prints the
// curve as a table or JSON. No redis or ClickHouse required.
func main() {
	var (
		inputMint  = flag.String("in", "", "input token mint address")
		outputMint = flag.String("out", "", "output token mint address")
		direction  = flag.String("dir", "sell", "probe direction: buy or sell")
		asJSON     = flag.Bool("json", false, "print the full result as JSON")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	if *inputMint == "" || *outputMint == "" {
		fmt.Fprintln(os.Stderr, "usage: probe -in <mint> -out <mint> [-dir buy|sell] [-json]")
		os.Exit(2)
	}
	dir, ok := depth.ParseDirection(*direction)
	if !ok {
		fmt.Fprintln(os.Stderr, "direction must be buy or sell")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.RPCTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	tokenCatalog := catalog.New(catalog.Config{
		Fetcher: rpcClient,
		Logger:  logger,
	})

	quoteClient := jupiter.NewClient(jupiter.ClientConfig{
		BaseURL:        cfg.JupiterBaseURL,
		APIKey:         cfg.JupiterAPIKey,
		Timeout:        cfg.QuoteTimeout,
		MaxRetries:     cfg.QuoteRetries,
		RetryBackoff:   cfg.QuoteBackoff,
		PacingInterval: cfg.PacingInterval,
		Logger:         logger,
	})

	engine, err := depth.NewEngine(depth.EngineConfig{
		Quoter:     quoteClient,
		Resolver:   tokenCatalog,
		USDLadder:  cfg.USDLadder,
		TimeBudget: cfg.TimeBudget,
		Logger:     logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create depth engine")
	}

	res, err := engine.CalculateDepth(ctx, *inputMint, *outputMint, dir)
	if err != nil {
		logger.WithError(err).Fatal("depth calculation failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			logger.WithError(err).Fatal("failed to encode result")
		}
		return
	}

	printResult(res)
}

func printResult(res *depth.Result) {
	label := fmt.Sprintf("%s/%s", catalog.Symbol(res.Pair.Input.Mint), catalog.Symbol(res.Pair.Output.Mint))
	fmt.Printf("pair %s  direction %s  elapsed %dms\n", label, res.Direction, res.ElapsedMs)
	if res.BaselinePrice != nil {
		fmt.Printf("baseline price: %.8g\n", *res.BaselinePrice)
	}
	if res.Truncated {
		fmt.Println("result truncated: time budget exhausted")
	}
	for _, n := range res.Notes {
		fmt.Printf("note: %s\n", n)
	}

	if len(res.Points) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USD\tIN\tOUT\tPRICE\tIMPACT%\tCUM IN\tCUM OUT")
		for _, p := range res.Points {
			fmt.Fprintf(w, "%.0f\t%.6g\t%.6g\t%.8g\t%.4f\t%.6g\t%.6g\n",
				p.TradeUSDValue, p.InputAmount, p.OutputAmount,
				p.ExecutionPrice, p.PriceImpactPct,
				p.CumulativeInputLiquidity, p.CumulativeOutputLiquidity)
		}
		w.Flush()
	}

	if len(res.Errors) > 0 {
		fmt.Printf("\n%d probe error(s):\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Printf("  $%.0f  %s: %s\n", e.TradeUSDValue, e.Kind, e.Message)
		}
	}
}
