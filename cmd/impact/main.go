// Command impact scores one match offline from saved Riot payloads.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"leagueback/internal/impact"
	"leagueback/internal/riot"
)

type output struct {
	MatchSummary *impact.MatchSummary `json:"matchSummary"`
	Category     impact.Category      `json:"category"`
}

func main() {
	matchPath := flag.String("match", "", "Path to a match-v5 JSON file")
	timelinePath := flag.String("timeline", "", "Path to the match timeline JSON file")
	puuid := flag.String("puuid", "", "PUUID of the player to score")
	flag.Parse()

	if *matchPath == "" || *timelinePath == "" || *puuid == "" {
		fmt.Fprintln(os.Stderr, "Usage: impact --match=match.json --timeline=timeline.json --puuid=PUUID")
		os.Exit(2)
	}

	if err := run(os.Stdout, *matchPath, *timelinePath, *puuid); err != nil {
		fmt.Fprintf(os.Stderr, "impact: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, matchPath, timelinePath, puuid string) error {
	var match riot.MatchResponse
	if err := readJSON(matchPath, &match); err != nil {
		return err
	}
	var timeline riot.TimelineResponse
	if err := readJSON(timelinePath, &timeline); err != nil {
		return err
	}

	matchID := match.Metadata.MatchID
	summary, err := impact.Reconstruct(matchID, puuid, &match, &timeline)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{MatchSummary: summary, Category: summary.Category()})
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
