package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sigrec/internal/analysis"
	"sigrec/internal/callconv"
	"sigrec/internal/exeinfo"
	"sigrec/internal/ir"
	"sigrec/internal/target"
)

type signatureOut struct {
	Function   string   `json:"function"`
	Parameters []string `json:"parameters"`
	Returns    []string `json:"returns"`
	Declared   bool     `json:"declared,omitempty"` // classified from a type, not a body
	Unknown    bool     `json:"unknown,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type analyzeOut struct {
	Convention string         `json:"convention"`
	Functions  []signatureOut `json:"functions"`
}

func cmdAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	modPath := fs.String("module", "", "path to lifted-IR module (JSON)")
	targetName := fs.String("target", "x86-64", "architecture family")
	format := fs.String("format", "elf64", "executable container format")
	exe := fs.String("exe", "", "derive target/format from this executable instead")
	tables := fs.String("conventions", "", "extra convention tables (TOML)")

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

	if *exe != "" {
		info, err := exeinfo.Identify(*exe)
		if err != nil {
			return err
		}
		*targetName, *format = info.Target, info.Format
	}

	convs, err := buildRegistry(*tables)
	if err != nil {
		return err
	}

	reg, err := analysis.New(target.AMD64(), convs, mod, *targetName, *format)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "convention: %s\n", reg.Convention().Name())

	out := analyzeOut{Convention: reg.Convention().Name()}
	for _, f := range mod.Funcs {
		sig := signatureOut{Function: f.Name}
		ci, err := reg.CallInfo(f)
		if err != nil {
			sig.Error = err.Error()
		} else {
			sig.Parameters, sig.Returns = locStrings(ci)
		}
		out.Functions = append(out.Functions, sig)
	}
	for _, im := range mod.Imports {
		sig := signatureOut{Function: im.Name, Declared: true}
		ci, err := reg.CallInfoForType(im.Name, im.Type)
		switch {
		case reg.Unknown(im.Name):
			sig.Unknown = true
		case err != nil:
			sig.Error = err.Error()
		default:
			sig.Parameters, sig.Returns = locStrings(ci)
		}
		out.Functions = append(out.Functions, sig)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(&out)
}

func locStrings(ci *callconv.CallInformation) (params, returns []string) {
	params = make([]string, 0, len(ci.Parameters))
	for _, loc := range ci.Parameters {
		params = append(params, loc.String())
	}
	returns = make([]string, 0, len(ci.Returns))
	for _, loc := range ci.Returns {
		returns = append(returns, loc.String())
	}
	return params, returns
}

func loadModule(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open module: %w", err)
	}
	defer f.Close()
	return ir.DecodeModule(f)
}

func buildRegistry(tablesPath string) (*callconv.Registry, error) {
	convs := &callconv.Registry{}
	convs.Register(callconv.SysV())
	convs.Register(callconv.Win64())
	if tablesPath != "" {
		extra, err := callconv.LoadTables(tablesPath)
		if err != nil {
			return nil, err
		}
		for _, c := range extra {
			convs.Register(c)
		}
	}
	return convs, nil
}
