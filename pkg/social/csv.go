package social

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// requiredColumns is spec §4.3.1 step 2's required CSV header.
var requiredColumns = []string{"external_id", "author", "text", "posted_at"}

// parsedObject is the outcome of parsing one CSV object: the
// candidates that survived, and how many rows were seen vs dropped.
type parsedObject struct {
	candidates  []postCandidate
	rowsTotal   int
	rowsDropped int
}

// parseCSV turns one channel CSV export into post candidates. A row
// missing a required column, or with an unparseable posted_at, is
// dropped and counted — never fatal to the rest of the object.
func parseCSV(r io.Reader) (parsedObject, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return parsedObject{}, nil
	}
	if err != nil {
		return parsedObject{}, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := col[required]; !ok {
			return parsedObject{}, fmt.Errorf("missing required column %q", required)
		}
	}

	var out parsedObject
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return parsedObject{}, fmt.Errorf("read csv row: %w", err)
		}
		out.rowsTotal++

		candidate, ok := rowToCandidate(row, col)
		if !ok {
			out.rowsDropped++
			continue
		}
		out.candidates = append(out.candidates, candidate)
	}

	return out, nil
}

func rowToCandidate(row []string, col map[string]int) (postCandidate, bool) {
	externalID := field(row, col, "external_id")
	author := field(row, col, "author")
	text := field(row, col, "text")
	postedAtRaw := field(row, col, "posted_at")
	if externalID == "" || author == "" || text == "" || postedAtRaw == "" {
		return postCandidate{}, false
	}

	publishedAt, ok := parsePostedAt(postedAtRaw)
	if !ok {
		return postCandidate{}, false
	}

	return postCandidate{
		ExternalID:    externalID,
		Author:        author,
		Body:          text,
		PublishedAt:   publishedAt,
		URL:           field(row, col, "url"),
		SentimentHint: field(row, col, "sentiment_hint"),
	}, true
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parsePostedAt(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
