package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/coursecompass/decision-engine/internal/catalog"
	"github.com/coursecompass/decision-engine/internal/criteria"
	"github.com/coursecompass/decision-engine/internal/matrix"
	"github.com/coursecompass/decision-engine/internal/ranking"
	"github.com/coursecompass/decision-engine/internal/weights"
)

// #region scenario

// scenario is one student run: answers, optional slider edits, one ranking.
type scenario struct {
	Domain        string             `json:"domain"`
	CombinationID string             `json:"combination_id"`
	Answers       map[string]float64 `json:"answers"`
	Adjustments   []adjustment       `json:"adjustments,omitempty"`
	TopK          int                `json:"top_k,omitempty"`
}

type adjustment struct {
	Criterion string  `json:"criterion"`
	Value     float64 `json:"value"`
}

type result struct {
	Weights        weights.Vector       `json:"normalized_weights"`
	SortedCriteria []criteria.Criterion `json:"sorted_criteria"`
	Ranking        ranking.Result       `json:"ranking"`
}

// #endregion scenario

// #region main

func main() {
	streams := flag.String("streams", "data/streams.json", "path to streams JSON")
	questions := flag.String("questions", "data/questions.json", "path to questions JSON")
	scenarioPath := flag.String("scenario", "", "path to scenario JSON")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: simulate --scenario path/to/scenario.json [--streams f] [--questions f] [--json]")
		os.Exit(2)
	}

	if err := run(*streams, *questions, *scenarioPath, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(streamsPath, questionsPath, scenarioPath string, jsonOut bool) error {
	raw, err := os.ReadFile(scenarioPath)
	if err != nil {
		return fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario
	if err := json.Unmarshal(raw, &sc); err != nil {
		return fmt.Errorf("parse scenario: %w", err)
	}

	cat, err := catalog.Load(streamsPath, questionsPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if !cat.HasDomain(sc.Domain) {
		return fmt.Errorf("unknown domain %q", sc.Domain)
	}
	courses, ok := cat.CoursesForCombination(sc.CombinationID)
	if !ok {
		return fmt.Errorf("unknown combination %q", sc.CombinationID)
	}

	_, w, err := weights.Derive(sc.Answers, cat.CriterionByQuestion(sc.Domain))
	if err != nil {
		return fmt.Errorf("derive weights: %w", err)
	}
	for _, adj := range sc.Adjustments {
		w, err = weights.AdjustPercent(w, criteria.Criterion(adj.Criterion), adj.Value)
		if err != nil {
			return fmt.Errorf("adjust %s: %w", adj.Criterion, err)
		}
	}

	m := matrix.Build(cat.UniqueCourses())
	res := ranking.RankSubset(m, courses, w, sc.TopK)

	out := result{
		Weights:        w,
		SortedCriteria: weights.SortedCriteria(w),
		Ranking:        res,
	}
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printResult(sc, out)
	return nil
}

// #endregion main

// #region print

func printResult(sc scenario, out result) {
	fmt.Printf("domain=%s combination=%s answered=%d\n\n", sc.Domain, sc.CombinationID, len(sc.Answers))

	fmt.Println("weights (highest first):")
	for _, c := range out.SortedCriteria {
		if out.Weights[c] <= 0 {
			continue
		}
		fmt.Printf("  %-24s %.4f\n", c, out.Weights[c])
	}

	fmt.Println("\nranking:")
	for i, rc := range out.Ranking.Ranked {
		marker := "  "
		if i < len(out.Ranking.TopK) {
			marker = "* "
		}
		fmt.Printf("%s%2d. %-40s %.4f\n", marker, i+1, rc.Course, rc.FinalScore)
	}
	fmt.Println(strings.Repeat("-", 56))
	fmt.Printf("top %d marked with *\n", len(out.Ranking.TopK))
}

// #endregion print
