package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/chrissnell/tlprofile/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <tlprofile.yaml> -sqlite <tlprofile.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := convert(*yamlFile, *sqliteFile, *force, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func convert(yamlFile, sqliteFile string, force, dryRun bool) error {
	if _, err := os.Stat(sqliteFile); err == nil && !force {
		return fmt.Errorf("SQLite file already exists: %s (use -force to overwrite)", sqliteFile)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", yamlFile)
	fmt.Printf("  Target: %s\n", sqliteFile)

	configData, err := config.NewYAMLProvider(yamlFile).LoadConfig()
	if err != nil {
		return fmt.Errorf("loading YAML configuration: %w", err)
	}
	printConfigSummary(configData)

	if dryRun {
		fmt.Println("DRY RUN complete - no database created")
		return nil
	}

	if force {
		if err := os.Remove(sqliteFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing existing database: %w", err)
		}
	}

	provider, err := config.NewSQLiteProvider(sqliteFile)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}

	fmt.Println("Conversion complete")
	return nil
}

func printConfigSummary(c *config.ConfigData) {
	fmt.Printf("  Epsilon: %g %s, top %d deviations\n", c.Simplification.Epsilon, c.Units.Elevation, c.Simplification.TopN)
	fmt.Printf("  Distance unit: %s\n", c.Units.Distance)
	fmt.Printf("  Cache size: %d\n", c.Cache.Size)

	ids := make([]string, 0, len(c.Lines))
	for id := range c.Lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Printf("  Lines with overrides: %d\n", len(ids))
	for _, id := range ids {
		line := c.Line(id)
		fmt.Printf("    %s: epsilon=%g breaks=%d size-changes=%t\n", id, line.Epsilon, len(line.BreakAt), line.SizeChanges)
	}
}
