package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/burrodoc/burro/fontmap"
	"github.com/burrodoc/burro/layout"
	"github.com/burrodoc/burro/parser"
	"github.com/burrodoc/burro/renderer"
	canvasrenderer "github.com/burrodoc/burro/renderer/canvas"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "burro",
		Short:        "Compile Burro documents to PDF",
		SilenceUsage: true,
	}
	root.AddCommand(newCompileCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	var (
		out       string
		fontMap   string
		debugPath string
	)
	cmd := &cobra.Command{
		Use:   "compile <document>",
		Short: "Typeset a document and write a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(cmd, args[0], out, fontMap, debugPath)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PDF path (default: document name with .pdf)")
	cmd.Flags().StringVar(&fontMap, "font-map", "", "font map file (default: "+fontmap.MapFileName+" next to the document)")
	cmd.Flags().StringVar(&debugPath, "debug", "", "write the layout result as JSON to this path")
	return cmd
}

// compile chains parsing, layout and rendering.
func compile(cmd *cobra.Command, docPath, outPath, mapPath, debugPath string) error {
	src, err := os.ReadFile(docPath)
	if err != nil {
		return err
	}

	doc, err := parser.Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", docPath, err)
	}

	if mapPath == "" {
		mapPath = fontmap.Discover(docPath)
	}
	if mapPath == "" {
		return fmt.Errorf("%s: no font map given and no %s next to the document", docPath, fontmap.MapFileName)
	}
	fonts, err := fontmap.Load(mapPath)
	if err != nil {
		return err
	}

	result, err := layout.Build(doc, layout.BuildOptions{Metrics: fonts})
	if err != nil {
		return fmt.Errorf("%s: %w", docPath, err)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: %s\n", docPath, w)
	}

	if debugPath != "" {
		if err := layout.WriteDebugJSON(result, debugPath); err != nil {
			return err
		}
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".pdf"
	}
	var r renderer.Renderer = canvasrenderer.New(fonts)
	pdfBytes, err := r.Render(result)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(outPath, pdfBytes, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
	return nil
}
