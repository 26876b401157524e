package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zboralski/lattice/render"

	"sigrec/internal/analysis"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	modPath := fs.String("module", "", "path to lifted-IR module (JSON)")
	out := fs.String("o", "", "output DOT file (default stdout)")
	title := fs.String("title", "callgraph", "graph title")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modPath == "" {
		return fmt.Errorf("--module is required")
	}

	mod, err := loadModule(*modPath)
	if err != nil {
		return err
	}

	g := analysis.BuildCallGraph(mod)
	dot := render.DOT(g, *title)

	if *out == "" {
		fmt.Print(dot)
		return nil
	}
	if err := os.WriteFile(*out, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write dot: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d nodes, %d edges)\n", *out, len(g.Nodes), len(g.Edges))
	return nil
}
