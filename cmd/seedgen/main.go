// Command seedgen generates a deterministic mock-report fixture over the
// seeded Virginia water-body registry, for test suites and demo
// environments. It runs the observations through the real gateway
// derivation so the fixture matches production behavior.
//
// Usage:
//
//	go run ./cmd/seedgen \
//	  -out data/mock/water_reports.json \
//	  -per-location 4 \
//	  -seed 1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/blueridgecivic/waterwatch-service/internal/consensus"
	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/locations"
)

// baseTime anchors all fixture timestamps so regenerated fixtures diff
// cleanly.
var baseTime = time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)

var conditions = []string{"clear", "greenish", "algae", "foam", "discolored"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the report fixture JSON")
	perLocation := flag.Int("per-location", 4, "reports generated per water body")
	seed := flag.Int64("seed", 1, "random seed for condition selection")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewSource(*seed))
	registry := locations.NewRegistry(locations.DefaultWaterbodies())

	var reports []domain.Report
	for _, wb := range registry.All() {
		for i := 0; i < *perLocation; i++ {
			condition := conditions[rng.Intn(len(conditions))]
			// Spread timestamps backwards through the window so some
			// reports sit near the boundary.
			age := time.Duration(rng.Intn(int(consensus.DefaultWindow / time.Minute))) * time.Minute
			coords := wb.Coordinates
			reports = append(reports, domain.Report{
				ID:             fmt.Sprintf("seed-%s-%03d", slug(wb.Name), i),
				Location:       wb.Name,
				Status:         domain.DeriveStatus(condition),
				WaterCondition: condition,
				Coordinates:    &coords,
				Timestamp:      baseTime.Add(-age),
				Anonymous:      true,
			})
		}
	}

	if err := writeJSON(*out, reports); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d reports to %s", len(reports), *out)

	printStats(reports)
	return nil
}

func slug(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ':
			out = append(out, '-')
		}
	}
	return string(out)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats runs the real consensus engine over the fixture and prints the
// per-location outcome, for updating test assertions.
func printStats(reports []domain.Report) {
	eval := consensus.NewEvaluator(consensus.DefaultThresholds(), consensus.DefaultWindow)
	now := baseTime

	byLocation := map[string]int{}
	for _, r := range reports {
		byLocation[r.Location]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d reports across %d locations\n", len(reports), len(byLocation))
	for location := range byLocation {
		res := eval.Evaluate(location, reports, now)
		fmt.Printf("  %-22s winner=%-8s counts=%v verified=%v remaining=%d\n",
			location, res.MostCommonStatus, res.StatusCounts, res.IsVerified, res.Remaining)
	}
}
