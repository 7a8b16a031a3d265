// Command validate checks a location/model catalog and, optionally, probes
// each model endpoint with a short forecast request. It verifies catalog
// structure, that every endpoint answers with a parseable hourly table, and
// that the table reduces to complete day-part buckets.
//
// Usage:
//
//	go run ./cmd/validate -catalog catalog.yaml
//	go run ./cmd/validate -catalog catalog.yaml -probe -days 2
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/config"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	catalogPath string
	probe       bool
	days        int
	timezone    string
	timeout     time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.catalogPath, "catalog", "", "path to a YAML catalog (default: built-in catalog)")
	flag.BoolVar(&opts.probe, "probe", false, "request a forecast from every model endpoint")
	flag.IntVar(&opts.days, "days", 1, "forecast days to request when probing")
	flag.StringVar(&opts.timezone, "timezone", "Europe/Warsaw", "forecast timezone to request when probing")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout when probing")
	flag.Parse()

	if opts.days < 1 || opts.days > 16 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(context.Background(), opts, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, opts options, out io.Writer) int {
	fmt.Fprintln(out, "=== Forecast Catalog Validation ===")
	fmt.Fprintln(out)

	catalog, err := config.LoadCatalog(opts.catalogPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{validateCatalog(catalog)}
	if opts.probe {
		cfg := &config.Config{
			ForecastTimezone: opts.timezone,
			FetchTimeout:     opts.timeout,
			FetchMaxRetries:  1,
			FetchRateLimit:   2,
		}
		client := openmeteo.NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		phases = append(phases, probeEndpoints(ctx, client, catalog, opts.days))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Catalog: %d locations, %d models\n", len(catalog.Locations), len(catalog.Models))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// validateCatalog flags entries that load but would produce poor reports.
func validateCatalog(c config.Catalog) *phase {
	p := &phase{name: "Phase 1: Catalog structure"}
	fmt.Fprintf(os.Stderr, "Checking %d locations and %d models...\n", len(c.Locations), len(c.Models))

	for _, l := range c.Locations {
		if l.Lat == 0 && l.Lon == 0 {
			p.errorf("location %q is at 0,0; coordinates are probably missing", l.Name)
		}
	}
	for _, m := range c.Models {
		req, err := http.NewRequest(http.MethodGet, m.Endpoint, nil)
		if err != nil {
			p.errorf("model %q: invalid endpoint %q: %v", m.Name, m.Endpoint, err)
			continue
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			p.errorf("model %q: endpoint scheme %q is not http(s)", m.Name, req.URL.Scheme)
		}
		if req.URL.Host == "" {
			p.errorf("model %q: endpoint %q has no host", m.Name, m.Endpoint)
		}
	}
	return p
}

// probeEndpoints requests the first location from every model and checks the
// reduced output has all four day-parts for each returned date.
func probeEndpoints(ctx context.Context, client *openmeteo.Client, c config.Catalog, days int) *phase {
	p := &phase{name: "Phase 2: Endpoint probe"}
	loc := c.Locations[0]

	for _, m := range c.Models {
		fmt.Fprintf(os.Stderr, "Probing %s for %s...\n", m.Name, loc.Name)
		table, err := client.FetchHourly(ctx, loc, m, days)
		if err != nil {
			p.errorf("%s: fetch: %v", m.Name, err)
			continue
		}
		rows, err := domain.SummarizeDayparts(loc.Name, m.Name, table)
		if err != nil {
			var malformed *domain.MalformedInputError
			if errors.As(err, &malformed) {
				p.errorf("%s: malformed hourly table: %v", m.Name, err)
			} else {
				p.errorf("%s: summarize: %v", m.Name, err)
			}
			continue
		}
		if len(rows) == 0 {
			p.errorf("%s: no day-part summaries from %d hours", m.Name, table.Len())
			continue
		}
		for date, n := range daypartsPerDate(rows) {
			if n != len(domain.Dayparts) {
				p.errorf("%s: %s has %d of %d day-parts", m.Name, date, n, len(domain.Dayparts))
			}
		}
	}
	return p
}

func daypartsPerDate(rows []domain.ModelDaypartSummary) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Date]++
	}
	return counts
}
