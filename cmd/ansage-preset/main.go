package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ansagelabs/ansage-core/internal/preset"
)

var version = "0.1.0-dev"

func main() {
	var catalogPath string
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateCmd.StringVar(&catalogPath, "file", "presets.yaml", "Path to preset catalog")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listCmd.StringVar(&catalogPath, "file", "", "Optional preset catalog to merge with built-ins")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'validate', 'list' or 'version'")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := runValidate(catalogPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("catalog valid")
	case "list":
		listCmd.Parse(os.Args[2:])
		if err := runList(catalogPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func runValidate(path string) error {
	presets, err := preset.LoadFile(path)
	if err != nil {
		return err
	}
	// Merge with built-ins so id collisions surface here, not at startup.
	_, err = preset.NewCatalog(append(preset.Builtin(), presets...))
	return err
}

func runList(path string) error {
	catalog, err := preset.Build(path)
	if err != nil {
		return err
	}
	for _, p := range catalog.List() {
		fmt.Printf("%-24s %s\n", p.ID, p.Title)
	}
	return nil
}
