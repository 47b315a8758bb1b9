// cmd/tools/catalog-admin/main.go
//
// Maintains the starter template catalog file. Subcommands validate the
// catalog, list its entries, and append new ones.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"template-manager/internal/models"
	"template-manager/pkg/catalog"
)

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = validateCatalog(os.Args[2:])
	case "list":
		err = listEntries(os.Args[2:])
	case "add":
		err = addEntry(os.Args[2:])
	case "help", "-h", "--help":
		help()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func validateCatalog(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "configs/catalog.json", "catalog file to validate")
	fs.Parse(args)

	cat, err := catalog.Load(*file)
	if err != nil {
		return err
	}

	fmt.Printf("%s is valid: %d template(s), catalog version %s\n",
		*file, len(cat.Templates), cat.Version)
	return nil
}

func listEntries(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	file := fs.String("file", "configs/catalog.json", "catalog file to list")
	fs.Parse(args)

	cat, err := catalog.Load(*file)
	if err != nil {
		return err
	}

	for _, entry := range cat.Templates {
		fmt.Printf("%-32s %-24s %-10s %d segment(s)\n",
			entry.ID, entry.Name, entry.Category, len(entry.Segments))
	}
	return nil
}

func addEntry(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	file := fs.String("file", "configs/catalog.json", "catalog file to update")
	id := fs.String("id", "", "template id (lowercase, hyphen separated)")
	name := fs.String("name", "", "template display name")
	description := fs.String("description", "", "template description")
	category := fs.String("category", "", "template category")
	complexity := fs.String("complexity", "simple", "simple, moderate, or advanced")
	segmentsJSON := fs.String("segments", "", "segments as a JSON array")
	tags := fs.String("tags", "", "comma separated tags")
	fs.Parse(args)

	if *id == "" || *name == "" || *segmentsJSON == "" {
		return fmt.Errorf("add requires -id, -name, and -segments")
	}

	var segments []models.Segment
	if err := json.Unmarshal([]byte(*segmentsJSON), &segments); err != nil {
		return fmt.Errorf("invalid -segments JSON: %w", err)
	}

	cat, err := catalog.Load(*file)
	if err != nil {
		return err
	}
	if cat.Entry(*id) != nil {
		return fmt.Errorf("template %q already exists in %s", *id, *file)
	}

	entry := catalog.Entry{
		ID:          *id,
		Name:        *name,
		Description: *description,
		Category:    *category,
		Complexity:  *complexity,
		Segments:    segments,
	}
	if *tags != "" {
		for _, tag := range strings.Split(*tags, ",") {
			entry.Tags = append(entry.Tags, strings.TrimSpace(tag))
		}
	}

	cat.Templates = append(cat.Templates, entry)
	cat.LastUpdated = time.Now().UTC().Format("2006-01-02")

	if err := saveCatalog(*file, cat); err != nil {
		return err
	}
	fmt.Printf("added %q to %s\n", *id, *file)
	return nil
}

// saveCatalog round-trips the updated catalog through the schema validator
// before writing, so a bad -segments payload never lands on disk.
func saveCatalog(path string, cat *catalog.Catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if _, err := catalog.Parse(data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func help() {
	fmt.Println(`catalog-admin maintains the starter template catalog.

Usage:
  catalog-admin validate [-file configs/catalog.json]
  catalog-admin list     [-file configs/catalog.json]
  catalog-admin add      -id ID -name NAME -segments JSON
                         [-file FILE] [-description D] [-category C]
                         [-complexity simple|moderate|advanced] [-tags a,b]

Examples:
  catalog-admin validate
  catalog-admin add -id renewal-caller -name "Renewal Caller" \
    -category insurance \
    -segments '[{"id":"intro","name":"Intro","type":"fixed","content":"...","required":true,"order":1}]'`)
}
