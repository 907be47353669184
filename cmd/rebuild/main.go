// Package main provides a one-shot rebuild: pull (or load) the raw
// transaction groups, run the full aggregation and write the dashboard
// payload as JSON. Useful for inspecting a build offline without the
// server loop.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"property-analytics/internal/aggregate"
	"property-analytics/internal/domain"
	"property-analytics/internal/fetch"
)

// fixture is the shape of a local input file.
type fixture struct {
	Sales   []domain.ProjectSaleGroup   `json:"sales"`
	Rentals []domain.ProjectRentalGroup `json:"rentals"`
}

func main() {
	_ = godotenv.Load()

	input := flag.String("input", "", "Local JSON fixture instead of the upstream provider")
	upstreamURL := flag.String("upstream-url", os.Getenv("UPSTREAM_URL"), "Upstream data provider base URL")
	accessKey := flag.String("access-key", os.Getenv("UPSTREAM_ACCESS_KEY"), "Upstream provider access key")
	output := flag.String("output", "payload.json", "Output file for the dashboard payload")
	flag.Parse()

	if err := run(*input, *upstreamURL, *accessKey, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(input, upstreamURL, accessKey, output string) error {
	sales, rentals, err := loadGroups(input, upstreamURL, accessKey)
	if err != nil {
		return err
	}

	start := time.Now()
	agg := aggregate.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	for _, g := range sales {
		if err := agg.Add(g); err != nil {
			return fmt.Errorf("aggregate sales: %w", err)
		}
	}
	for _, g := range rentals {
		if err := agg.AddRentals(g); err != nil {
			return fmt.Errorf("aggregate rentals: %w", err)
		}
	}
	res, err := agg.Build()
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	data, err := json.MarshalIndent(res.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("Rebuild completed in %v\n", time.Since(start))
	fmt.Printf("  Transactions: %d (dropped %d)\n", res.Payload.TotalTx, res.Dropped)
	fmt.Printf("  Retained sales: %d, rentals: %d\n", len(res.Sales), len(res.Rentals))
	fmt.Printf("  Payload written to %s\n", output)
	return nil
}

func loadGroups(input, upstreamURL, accessKey string) ([]domain.ProjectSaleGroup, []domain.ProjectRentalGroup, error) {
	if input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, nil, fmt.Errorf("read fixture: %w", err)
		}
		var f fixture
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, nil, fmt.Errorf("decode fixture: %w", err)
		}
		return f.Sales, f.Rentals, nil
	}

	if upstreamURL == "" {
		return nil, nil, fmt.Errorf("either --input or --upstream-url is required")
	}
	ctx := context.Background()
	client := fetch.NewClient(upstreamURL, accessKey)
	sales, err := client.FetchSales(ctx)
	if err != nil {
		return nil, nil, err
	}
	rentals, err := client.FetchRentals(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sales, rentals, nil
}
