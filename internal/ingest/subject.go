package ingest

import (
	"context"
	"strings"

	"github.com/fortuna/diamond/internal/extract"
)

// Subject is what one scrape is pointed at: a player, a team, or the
// league as a whole (Kind "league", no ID).
type Subject struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Team string `json:"team,omitempty"`
	Role string `json:"role,omitempty"`
}

const (
	KindPlayer = "player"
	KindTeam   = "team"
	KindLeague = "league"
)

// Slug is the URL form of the name: "Shea Langeliers" -> "shea-langeliers".
func (s Subject) Slug() string {
	return strings.Join(strings.Fields(strings.ToLower(s.Name)), "-")
}

// Normalized is the file-system form of the name: lowercased with spaces
// replaced by underscores.
func (s Subject) Normalized() string {
	return NormalizeName(s.Name)
}

func (s Subject) String() string {
	if s.ID == "" {
		return s.Name
	}
	return s.Name + " (" + s.ID + ")"
}

// NormalizeName lowercases name and replaces spaces with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Output is what one scrape produced for one datastore table.
type Output struct {
	Table    string
	Category string
	Schema   extract.Schema
	Records  []extract.Record
	// ReplaceKey, when set, deletes the table's rows for that subject
	// before inserting.
	ReplaceKey string
}

// Empty reports whether there is nothing to persist.
func (o Output) Empty() bool {
	return len(o.Records) == 0
}

// ScrapeFunc scrapes one subject. A nil slice with a nil error means the
// subject was skipped (fetch failed or nothing matched) and has been logged.
type ScrapeFunc func(ctx context.Context, subject Subject) ([]Output, error)
