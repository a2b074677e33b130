package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"typeguess/internal/guess"
	"typeguess/internal/patterns"
	"typeguess/internal/srctree"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Run every query site found in the given sources",
	Long: `Load the Java sources under the given paths and run a cast guess for every
cast operand and an element guess for every container read such as
list.get(i). Files are processed in parallel (scan.workers).

Examples:
  typeguess scan src/
  typeguess scan src/ --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

// ScanResultCLI is one query site and its answer.
type ScanResultCLI struct {
	File  string   `json:"file" yaml:"file"`
	At    string   `json:"at" yaml:"at"`
	Op    string   `json:"op" yaml:"op"`
	Expr  string   `json:"expr" yaml:"expr"`
	Types []string `json:"types" yaml:"types"`

	offset int
}

// ScanResponseCLI contains all results of a scan.
type ScanResponseCLI struct {
	Files      int                `json:"files" yaml:"files"`
	Results    []ScanResultCLI    `json:"results" yaml:"results"`
	Metrics    map[string]float64 `json:"metrics" yaml:"metrics"`
	DurationMs int64              `json:"durationMs" yaml:"durationMs"`
}

func (r *ScanResponseCLI) Human() string {
	var b strings.Builder
	for _, res := range r.Results {
		types := "(none)"
		if len(res.Types) > 0 {
			types = strings.Join(res.Types, ", ")
		}
		fmt.Fprintf(&b, "%s:%s  %-7s %s -> %s\n", res.File, res.At, res.Op, res.Expr, types)
	}
	fmt.Fprintf(&b, "\n%d files, %d sites, %dms\n", r.Files, len(r.Results), r.DurationMs)
	for _, k := range sortedKeys(r.Metrics) {
		fmt.Fprintf(&b, "  %-60s %g\n", k, r.Metrics[k])
	}
	return b.String()
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	files, err := s.load(ctx, args...)
	if err != nil {
		return err
	}
	results, err := scanFiles(ctx, s.guesser, s.patterns, files, cfg.Scan.Workers)
	if err != nil {
		return err
	}

	resp := &ScanResponseCLI{
		Files:      len(files),
		Results:    results,
		Metrics:    metricTotals(prometheus.DefaultGatherer),
		DurationMs: time.Since(start).Milliseconds(),
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

// scanFiles queries every site in files using up to workers goroutines.
// Results are ordered by file, then position.
func scanFiles(ctx context.Context, g *guess.Guesser, table *patterns.Table, files []*srctree.File, workers int) ([]ScanResultCLI, error) {
	var (
		mu  sync.Mutex
		all []ScanResultCLI
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(workers, 1))
	for _, f := range files {
		eg.Go(func() error {
			res, err := scanFile(ctx, g, table, f)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, res...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		if all[i].offset != all[j].offset {
			return all[i].offset < all[j].offset
		}
		return all[i].Op < all[j].Op
	})
	return all, nil
}

// scanFile runs a cast guess on every cast operand in f and an element
// guess on the receiver of every call whose pattern reads an element.
func scanFile(ctx context.Context, g *guess.Guesser, table *patterns.Table, f *srctree.File) ([]ScanResultCLI, error) {
	type site struct {
		op      string
		expr    srctree.Expr
		ignored srctree.Range
	}
	var sites []site
	srctree.Inspect(f, func(n srctree.Node) bool {
		switch n := n.(type) {
		case *srctree.Cast:
			sites = append(sites, site{op: "cast", expr: n.X})
		case *srctree.Call:
			p, ok := table.Find(n.Name, len(n.Args))
			if !ok || !p.FromReturn() || n.Recv == nil {
				break
			}
			s := site{op: "element", expr: n.Recv}
			if c, ok := srctree.ParentSkippingParens(n).(*srctree.Cast); ok {
				s.ignored = srctree.RangeOf(c)
			}
			sites = append(sites, s)
		}
		return true
	})

	out := make([]ScanResultCLI, 0, len(sites))
	for _, s := range sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			set *guess.CandidateSet
			err error
		)
		if s.op == "cast" {
			set, err = g.GuessTypeToCast(ctx, s.expr)
		} else {
			set, err = g.GuessContainerElementType(ctx, s.expr, s.ignored)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ScanResultCLI{
			File:   f.Path,
			At:     position(f.Source, s.expr.Pos()),
			Op:     s.op,
			Expr:   exprText(s.expr),
			Types:  set.Strings(),
			offset: s.expr.Pos(),
		})
	}
	return out, nil
}

// position renders a byte offset as 1-based line:col.
func position(src []byte, off int) string {
	if off > len(src) {
		off = len(src)
	}
	line := bytes.Count(src[:off], []byte("\n")) + 1
	col := off - bytes.LastIndexByte(src[:off], '\n')
	return fmt.Sprintf("%d:%d", line, col)
}

// metricTotals flattens the typeguess counters into name{labels} keys.
func metricTotals(g prometheus.Gatherer) map[string]float64 {
	out := make(map[string]float64)
	mfs, err := g.Gather()
	if err != nil {
		logger.Warn("Failed to gather metrics", "error", err)
	}
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), "typeguess_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out
}
