// Command admin-export walks every page of an admin list and writes the
// items to stdout as JSON lines.
//
//	ADMIN_TOKEN=... admin-export -resource coupons -filter status=ACTIVE > coupons.jsonl
//	admin-export -list
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/threedollars/admin-console/pkg/admin"
	"github.com/threedollars/admin-console/pkg/client"
	"github.com/threedollars/admin-console/pkg/logging"
	"github.com/threedollars/admin-console/pkg/pagination"
)

type options struct {
	list     bool
	resource string
	filter   url.Values
	baseURL  string
	token    string
	pageSize int
	maxPages int
	timeout  time.Duration
}

// filterFlag collects repeated -filter key=value arguments.
type filterFlag url.Values

func (f filterFlag) String() string {
	return url.Values(f).Encode()
}

func (f filterFlag) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || key == "" {
		return fmt.Errorf("filter must be key=value, got %q", raw)
	}
	url.Values(f).Add(key, value)
	return nil
}

func parseOptions(args []string, getenv func(string) string) (options, error) {
	opts := options{filter: url.Values{}}

	fs := flag.NewFlagSet("admin-export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.list, "list", false, "print the exportable resources and exit")
	fs.StringVar(&opts.resource, "resource", "", "resource to export (see -list)")
	fs.Var(filterFlag(opts.filter), "filter", "filter as key=value, repeatable")
	fs.StringVar(&opts.baseURL, "api", getenv("ADMIN_API_URL"), "admin backend base url")
	fs.IntVar(&opts.pageSize, "size", pagination.MaxPageSize, "items per page")
	fs.IntVar(&opts.maxPages, "max-pages", 0, "stop after this many pages (0 = all)")
	fs.DurationVar(&opts.timeout, "timeout", 15*time.Second, "timeout per page")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.list {
		return opts, nil
	}

	opts.token = getenv("ADMIN_TOKEN")
	switch {
	case opts.resource == "":
		return options{}, errors.New("-resource is required")
	case opts.baseURL == "":
		return options{}, errors.New("-api or ADMIN_API_URL is required")
	case opts.token == "":
		return options{}, errors.New("ADMIN_TOKEN is required")
	case opts.maxPages < 0:
		return options{}, errors.New("-max-pages must not be negative")
	}
	return opts, nil
}

func main() {
	logging.Setup(logging.Config{
		Level:   logging.LogLevel(os.Getenv("LOG_LEVEL")),
		Pretty:  true,
		Service: "admin-export",
	})

	opts, err := parseOptions(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admin-export: %v\n", err)
		os.Exit(2)
	}

	if opts.list {
		if err := listResources(os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("List failed")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := export(ctx, opts, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Int("items", stats.Items).Msg("Export failed")
	}
	log.Info().
		Str("resource", opts.resource).
		Int("pages", stats.Pages).
		Int("items", stats.Items).
		Int("duplicates", stats.Duplicates).
		Bool("truncated", stats.Truncated).
		Dur("duration", stats.Duration).
		Msg("Export finished")
}

// listResources prints one resource per line: name, backend path and
// whether its items can be deleted.
func listResources(w io.Writer) error {
	for _, r := range admin.Resources() {
		mode := "read-only"
		if r.Deletable {
			mode = "deletable"
		}
		if _, err := fmt.Fprintf(w, "%-16s %-28s %s\n", r.Name, r.Path, mode); err != nil {
			return err
		}
	}
	return nil
}

// export writes every item of the resource to w, one JSON object per line.
func export(ctx context.Context, opts options, w io.Writer) (pagination.CollectStats, error) {
	resource, err := admin.Lookup(opts.resource)
	if err != nil {
		return pagination.CollectStats{}, fmt.Errorf("%w %q", err, opts.resource)
	}

	backend, err := client.New(client.DefaultConfig(opts.baseURL, client.StaticToken(opts.token)))
	if err != nil {
		return pagination.CollectStats{}, err
	}

	collector := pagination.NewCollector[admin.Record](admin.NewService(backend).Records(resource), resource.Name, pagination.CollectorConfig{
		PageSize: opts.pageSize,
		MaxPages: opts.maxPages,
		Timeout:  opts.timeout,
	})

	enc := json.NewEncoder(w)
	return collector.Collect(ctx, opts.filter, func(items []admin.Record) error {
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	})
}
