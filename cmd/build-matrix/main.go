package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/coursecompass/decision-engine/internal/catalog"
	"github.com/coursecompass/decision-engine/internal/matrix"
)

// #region main

func main() {
	streams := flag.String("streams", "data/streams.json", "path to streams JSON")
	questions := flag.String("questions", "data/questions.json", "path to questions JSON")
	dbPath := flag.String("db", "", "matrix cache DB to write (optional)")
	jsonOut := flag.String("out", "", "write matrix JSON to file ('-' for stdout)")
	force := flag.Bool("force", false, "rebuild even when the cached hash matches")
	flag.Parse()

	cat, err := catalog.Load(*streams, *questions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}

	courses := cat.UniqueCourses()
	m := matrix.Build(courses)
	fmt.Printf("classified %d unique courses (catalog %s)\n", m.Len(), shortHash(cat.Hash()))

	if *dbPath != "" {
		if err := saveToCache(*dbPath, m, cat.Hash(), *force); err != nil {
			fmt.Fprintf(os.Stderr, "cache: %v\n", err)
			os.Exit(1)
		}
	}

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, m); err != nil {
			fmt.Fprintf(os.Stderr, "export: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region output

func saveToCache(dbPath string, m *matrix.AttributeMatrix, hash string, force bool) error {
	store, err := matrix.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if !force {
		active, err := store.ActiveHash()
		if err == nil && active == hash {
			fmt.Println("cache already current, skipping save (use --force to override)")
			return nil
		}
	}

	versionID, err := store.Save(m, hash, "manual_build", "build-matrix CLI")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	fmt.Printf("saved matrix version %s to %s\n", versionID, dbPath)
	return nil
}

func writeJSON(path string, m *matrix.AttributeMatrix) error {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("wrote matrix JSON to %s\n", path)
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// #endregion output
