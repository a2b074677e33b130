package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"typeguess/internal/patterns"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Print the effective method pattern table",
	Long: `Print the container method patterns used to guess element types: the
built-in table plus any patterns file from configuration or --patterns.
A slot of -1 means the element flows through the return value.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession(cfg, logger)
		if err != nil {
			return err
		}
		return printResponse(cmd.OutOrStdout(), &PatternsResponseCLI{Patterns: s.patterns.All()})
	},
}

func init() {
	rootCmd.AddCommand(patternsCmd)
}

// PatternsResponseCLI lists method patterns.
type PatternsResponseCLI struct {
	Patterns []patterns.Pattern `json:"patterns" yaml:"patterns"`
}

func (r *PatternsResponseCLI) Human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %5s  %s\n", "METHOD", "ARITY", "SLOT")
	for _, p := range r.Patterns {
		slot := fmt.Sprint(p.Slot)
		if p.FromReturn() {
			slot = "return"
		}
		fmt.Fprintf(&b, "%-16s %5d  %s\n", p.Name, p.Arity, slot)
	}
	return b.String()
}
