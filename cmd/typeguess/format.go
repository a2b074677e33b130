package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	gerrors "typeguess/internal/errors"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
	FormatAuto  OutputFormat = "auto"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatHuman, FormatAuto:
		return f, nil
	default:
		return "", gerrors.Newf(gerrors.InvalidConfig, "unsupported format: %s", s)
	}
}

// resolveFormat turns auto into human on a terminal and json otherwise.
func resolveFormat(f OutputFormat, out io.Writer) OutputFormat {
	if f != FormatAuto {
		return f
	}
	if file, ok := out.(*os.File); ok {
		fd := file.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return FormatHuman
		}
	}
	return FormatJSON
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// printResponse writes resp to out in the format chosen by --format.
func printResponse(out io.Writer, resp interface{}) error {
	f, err := parseFormat(formatFlag)
	if err != nil {
		return err
	}
	s, err := FormatResponse(resp, resolveFormat(f, out))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, s)
	return err
}

// humanFormatter is implemented by responses with a text rendering.
type humanFormatter interface {
	Human() string
}

func formatHuman(resp interface{}) (string, error) {
	if h, ok := resp.(humanFormatter); ok {
		return strings.TrimSuffix(h.Human(), "\n"), nil
	}
	// No text rendering; fall back to YAML, which reads well enough.
	return FormatResponse(resp, FormatYAML)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
