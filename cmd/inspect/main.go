package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/coursecompass/decision-engine/internal/criteria"
	"github.com/coursecompass/decision-engine/internal/matrix"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to course_matrix.db")
	last := flag.Int("last", 20, "show N most recent matrix versions")
	course := flag.String("course", "", "show the active score row for one course")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/course_matrix.db [--last N] [--course name] [--json]")
		os.Exit(2)
	}

	store, err := matrix.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *course != "" {
		if err := runCourseMode(store, *course, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := runListMode(store, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID   string `json:"version_id"`
	CatalogHash string `json:"catalog_hash"`
	CourseCount int    `json:"course_count"`
	Trigger     string `json:"trigger"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func runListMode(store *matrix.Store, last int, jsonOut bool) error {
	versions, err := store.ListVersions(last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no matrix versions found")
		return nil
	}

	rows := make([]listRow, len(versions))
	for i, v := range versions {
		rows[i] = listRow{
			VersionID:   v.VersionID,
			CatalogHash: shortHash(v.CatalogHash),
			CourseCount: v.CourseCount,
			Trigger:     v.Trigger,
			Reason:      v.Reason,
			CreatedAt:   v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tHASH\tCOURSES\tTRIGGER\tCREATED")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.VersionID, r.CatalogHash, r.CourseCount, r.Trigger, r.CreatedAt)
	}
	return w.Flush()
}

// #endregion list-mode

// #region course-mode

func runCourseMode(store *matrix.Store, course string, jsonOut bool) error {
	m, hash, err := store.LoadActive()
	if err != nil {
		return err
	}

	row, ok := m.Get(course)
	if !ok {
		return fmt.Errorf("course %q not in active matrix (%d courses, catalog %s)", course, m.Len(), shortHash(hash))
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"course":       course,
			"catalog_hash": hash,
			"scores":       row,
		})
	}

	fmt.Printf("%s (catalog %s)\n", course, shortHash(hash))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, c := range criteria.All() {
		fmt.Fprintf(w, "  %s\t%d\n", c, row[c])
	}
	return w.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// #endregion course-mode
