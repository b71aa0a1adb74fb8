package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/go-tmplkit/pkg/tmplkit"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	renderASTPath     string
	renderASTInline   string
	renderContextPath string
	renderMissingVars bool
	renderSelect      string
	renderDumpSize    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a pre-built expression tree against a context",
	Long: `render evaluates one astNode JSON document (see loader.go's doc
comment for the node shape) against an optional JSON context document.

There is no template text to parse here: the lexer and parser for the
host template language are out of scope for this module, so render's
input is already an AST, not source.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderASTPath, "ast", "", "path to a JSON AST document")
	renderCmd.Flags().StringVar(&renderASTInline, "ast-inline", "", "inline JSON AST document")
	renderCmd.Flags().StringVar(&renderContextPath, "context", "", "path to a JSON context document")
	renderCmd.Flags().BoolVar(&renderMissingVars, "strict", false, "propagate missing-variable errors instead of decaying to nil")
	renderCmd.Flags().StringVar(&renderSelect, "select", "", "print the context value at this gjson path instead of rendering")
	renderCmd.Flags().BoolVar(&renderDumpSize, "dump-size", false, "print the resolved tree's EstimateSize hint alongside the output")

	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, _ []string) error {
	var ctxDoc []byte
	if renderContextPath != "" {
		var err error
		ctxDoc, err = os.ReadFile(renderContextPath)
		if err != nil {
			return fmt.Errorf("reading context document: %w", err)
		}
	}

	if renderSelect != "" {
		if ctxDoc == nil {
			return fmt.Errorf("--select requires --context")
		}
		result := gjson.GetBytes(ctxDoc, renderSelect)
		fmt.Println(result.String())
		return nil
	}

	raw, err := readRenderInput()
	if err != nil {
		return err
	}

	var node astNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("parsing AST document: %w", err)
	}

	e, err := tmplkit.New(tmplkit.WithMissingVariableThrows(renderMissingVars))
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}

	if ctxDoc != nil {
		if err := e.Context().LoadJSON("", ctxDoc); err != nil {
			return fmt.Errorf("loading context: %w", err)
		}
	}

	root, err := buildParameter(node, e.Registry())
	if err != nil {
		return fmt.Errorf("building AST: %w", err)
	}

	if renderDumpSize {
		resolved, err := e.Compile("render", root)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "estimated size: %d\n", resolved.EstimateSize())
		root = resolved
	}

	result, err := e.Render("render", root)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	if verbose && result.Value.Errored() {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", result.Value.Diagnostic())
	}
	fmt.Println(result.Output)
	return nil
}

func readRenderInput() ([]byte, error) {
	switch {
	case renderASTInline != "":
		return []byte(renderASTInline), nil
	case renderASTPath != "":
		return os.ReadFile(renderASTPath)
	default:
		return nil, fmt.Errorf("one of --ast or --ast-inline is required")
	}
}
