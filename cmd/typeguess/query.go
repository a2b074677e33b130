package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	gerrors "typeguess/internal/errors"
	"typeguess/internal/srctree"
)

var (
	queryAt          string
	elementIgnore    string
	honorAssignments bool
)

var elementCmd = &cobra.Command{
	Use:   "element <file> [context paths...]",
	Short: "Guess the element type of a container expression",
	Long: `Guess what a raw container holds by following the usages of the variable
at the given position. Extra paths are loaded for their declarations.

Examples:
  typeguess element src/App.java --at 12:9
  typeguess element src/App.java src/ --at 12:9 --ignore 340:362`,
	Args: cobra.MinimumNArgs(1),
	RunE: runElement,
}

var castCmd = &cobra.Command{
	Use:   "cast <file> [context paths...]",
	Short: "Guess the types an expression may be cast to",
	Long: `Guess the most specific runtime types of the expression at the given
position, for offering a cast.

Examples:
  typeguess cast src/App.java --at 20:14`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCast,
}

var conjunctsCmd = &cobra.Command{
	Use:   "conjuncts <file> [context paths...]",
	Short: "List the types an expression is known to have at its position",
	Long: `List the types every path reaching the expression agrees on, as
established by instanceof checks and, with --honor-assignments, by
assignments and casts.

Examples:
  typeguess conjuncts src/App.java --at 31:22 --honor-assignments`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConjuncts,
}

func init() {
	for _, c := range []*cobra.Command{elementCmd, castCmd, conjunctsCmd} {
		c.Flags().StringVar(&queryAt, "at", "", "Expression position as line:col (1-based)")
		_ = c.MarkFlagRequired("at")
		rootCmd.AddCommand(c)
	}
	elementCmd.Flags().StringVar(&elementIgnore, "ignore", "", "Byte range start:end whose casts are not counted")
	conjunctsCmd.Flags().BoolVar(&honorAssignments, "honor-assignments", false, "Count assignments and casts as evidence")
}

// GuessResponseCLI is the result of a single query.
type GuessResponseCLI struct {
	Op         string   `json:"op" yaml:"op"`
	File       string   `json:"file" yaml:"file"`
	At         string   `json:"at" yaml:"at"`
	Expr       string   `json:"expr" yaml:"expr"`
	Types      []string `json:"types" yaml:"types"`
	DurationMs int64    `json:"durationMs" yaml:"durationMs"`
}

func (r *GuessResponseCLI) Human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s:%s  %s\n", r.Op, r.File, r.At, r.Expr)
	if len(r.Types) == 0 {
		b.WriteString("  (no types)\n")
	}
	for _, t := range r.Types {
		fmt.Fprintf(&b, "  %s\n", t)
	}
	return b.String()
}

// commandContext is canceled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// runQuery resolves the expression at --at and reports what query returns.
func runQuery(cmd *cobra.Command, args []string, op string, query func(context.Context, *session, srctree.Expr) ([]string, error)) error {
	start := time.Now()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	expr, err := s.exprAt(ctx, queryAt, args...)
	if err != nil {
		return err
	}
	types, err := query(ctx, s, expr)
	if err != nil {
		return err
	}

	resp := &GuessResponseCLI{
		Op:         op,
		File:       args[0],
		At:         queryAt,
		Expr:       exprText(expr),
		Types:      types,
		DurationMs: time.Since(start).Milliseconds(),
	}
	logger.Debug("Query completed", "op", op, "types", len(types), "duration", resp.DurationMs)
	return printResponse(cmd.OutOrStdout(), resp)
}

func runElement(cmd *cobra.Command, args []string) error {
	var ignored srctree.Range
	if elementIgnore != "" {
		if _, err := fmt.Sscanf(elementIgnore, "%d:%d", &ignored.Start, &ignored.End); err != nil {
			return gerrors.Newf(gerrors.InvalidConfig, "invalid --ignore %q, want start:end", elementIgnore)
		}
	}
	return runQuery(cmd, args, "element", func(ctx context.Context, s *session, e srctree.Expr) ([]string, error) {
		set, err := s.guesser.GuessContainerElementType(ctx, e, ignored)
		if err != nil {
			return nil, err
		}
		return set.Strings(), nil
	})
}

func runCast(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, args, "cast", func(ctx context.Context, s *session, e srctree.Expr) ([]string, error) {
		set, err := s.guesser.GuessTypeToCast(ctx, e)
		if err != nil {
			return nil, err
		}
		return set.Strings(), nil
	})
}

func runConjuncts(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, args, "conjuncts", func(ctx context.Context, s *session, e srctree.Expr) ([]string, error) {
		ts, err := s.guesser.ControlFlowExpressionTypeConjuncts(ctx, e, honorAssignments)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = t.String()
		}
		return out, nil
	})
}

// exprText returns the source text of e, or its kind when the file has
// no source.
func exprText(e srctree.Expr) string {
	f := srctree.FileOf(e)
	if f == nil || e.End() > len(f.Source) || e.Pos() >= e.End() {
		return fmt.Sprintf("<%v>", e.Kind())
	}
	return strings.Join(strings.Fields(string(f.Source[e.Pos():e.End()])), " ")
}
