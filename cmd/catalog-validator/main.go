// cmd/catalog-validator/main.go

// catalog-validator loads and schema-validates a catalog file, then
// prints a summary. Exits non-zero when the file would be rejected at
// service startup.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"career-advisor/internal/catalog"
	"career-advisor/internal/common/logger"
)

func main() {
	path := flag.String("catalog", "data/professions.json", "path to the catalog file")
	flag.Parse()

	cat, err := catalog.Load(*path, logger.NewNoOpLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		os.Exit(1)
	}

	stats := cat.Stats()
	fmt.Printf("OK: %d careers, %d high-growth\n", stats.Total, stats.HighGrowth)

	categories := make([]string, 0, len(stats.Categories))
	for c := range stats.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Printf("  %-14s %d\n", c, stats.Categories[c])
	}
}
