package espn

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/diamond/internal/extract"
)

// overallSplit is the API's name for the season line.
const overallSplit = "All Splits"

// splitsTables turns the splits API payload into one RawTable per split
// category, headed by the stat abbreviations.
func splitsTables(resp splitsResponse) []extract.RawTable {
	labels := resp.Labels
	if len(labels) == 0 {
		labels = resp.Names
	}
	header := append([]string{"Split"}, labels...)

	tables := make([]extract.RawTable, 0, len(resp.SplitCategories))
	for _, cat := range resp.SplitCategories {
		t := extract.RawTable{Title: fallbackString(cat.DisplayName, cat.Name), Header: header}
		for _, split := range cat.Splits {
			label := split.DisplayName
			if label == overallSplit {
				label = "OVERALL"
			}
			t.Rows = append(t.Rows, append([]string{label}, split.Stats...))
		}
		tables = append(tables, t)
	}
	return tables
}

// gamelogTables returns one table per month of the regular-season gamelog:
// date, opponent and result followed by the stat columns.
func gamelogTables(resp gamelogResponse) []extract.RawTable {
	header := append([]string{"Date", "OPP", "Result"}, resp.Labels...)

	var tables []extract.RawTable
	for _, st := range resp.SeasonTypes {
		for _, cat := range st.Categories {
			if cat.Type != "event" {
				continue
			}
			t := extract.RawTable{Title: titleCase(cat.DisplayName), Header: header}
			for _, e := range cat.Events {
				ev := resp.Events[e.EventID]
				row := []string{
					gameDate(ev.GameDate),
					strings.TrimSpace(ev.AtVs + " " + fallbackString(ev.Opponent.Abbreviation, ev.Opponent.DisplayName)),
					strings.TrimSpace(ev.GameResult + " " + ev.Score),
				}
				t.Rows = append(t.Rows, append(row, e.Stats...))
			}
			if len(t.Rows) > 0 {
				tables = append(tables, t)
			}
		}
	}
	return tables
}

var rosterHeader = []string{"Name", "Jersey", "POS", "BAT", "THW", "Age", "HT", "WT", "Birth Place", "ID"}

// rosterTables returns one table per position group.
func rosterTables(resp rosterResponse) []extract.RawTable {
	var tables []extract.RawTable
	flat := extract.RawTable{Header: rosterHeader}
	for _, a := range resp.Athletes {
		if len(a.Items) == 0 {
			if a.FullName != "" {
				flat.Rows = append(flat.Rows, rosterRow(a))
			}
			continue
		}
		t := extract.RawTable{Title: titleCase(positionName(a.Position)), Header: rosterHeader}
		for _, item := range a.Items {
			t.Rows = append(t.Rows, rosterRow(item))
		}
		tables = append(tables, t)
	}
	if len(flat.Rows) > 0 {
		tables = append(tables, flat)
	}
	return tables
}

func rosterRow(a rosterAthlete) []string {
	age := ""
	if a.Age > 0 {
		age = strconv.Itoa(a.Age)
	}
	place := joinNonEmpty(", ", a.BirthPlace.City, a.BirthPlace.State, a.BirthPlace.Country)
	return []string{
		a.FullName,
		a.Jersey,
		positionName(a.Position),
		a.Bats.Abbreviation,
		a.Throws.Abbreviation,
		age,
		a.DisplayHeight,
		a.DisplayWeight,
		place,
		a.ID,
	}
}

// positionName reads a position that is either a bare string or an object
// carrying an abbreviation.
func positionName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Abbreviation string `json:"abbreviation"`
		Name         string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return fallbackString(obj.Abbreviation, obj.Name)
	}
	return ""
}

var bioHeader = []string{"Name", "Team", "Position", "Age", "Height", "Weight", "Birthplace", "College", "Experience", "Jersey"}

// bioTable turns the athlete payload into a one-row table.
func bioTable(resp bioResponse) extract.RawTable {
	a := resp.athlete()
	t := extract.RawTable{Title: "Bio", Header: bioHeader}
	if a.FullName == "" {
		return t
	}
	age, experience := "", ""
	if a.Age > 0 {
		age = strconv.Itoa(a.Age)
	}
	if a.Experience.Years > 0 {
		experience = strconv.Itoa(a.Experience.Years)
	}
	t.Rows = append(t.Rows, []string{
		a.FullName,
		a.Team.DisplayName,
		positionName(a.Position),
		age,
		a.DisplayHeight,
		a.DisplayWeight,
		joinNonEmpty(", ", a.BirthPlace.City, a.BirthPlace.State, a.BirthPlace.Country),
		a.College.Name,
		experience,
		a.Jersey,
	})
	return t
}

// labelFirst moves the column headed name to the front so it reads as
// the row label.
func labelFirst(name string) func(*extract.RawTable) {
	return func(t *extract.RawTable) {
		col := -1
		for n, h := range t.Header {
			if strings.EqualFold(h, name) {
				col = n
				break
			}
		}
		if col <= 0 {
			return
		}
		t.Header = moveToFront(t.Header, col)
		for n, row := range t.Rows {
			if col < len(row) {
				t.Rows[n] = moveToFront(row, col)
			}
		}
	}
}

func moveToFront(cells []string, col int) []string {
	out := make([]string, 0, len(cells))
	out = append(out, cells[col])
	out = append(out, cells[:col]...)
	return append(out, cells[col+1:]...)
}

// newsTable reads the article teasers on a team or league news page.
func newsTable(doc *goquery.Document) extract.RawTable {
	t := extract.RawTable{Title: "News", Header: []string{"Headline", "Published", "Summary", "Link"}}
	items := doc.Find("article")
	if items.Length() == 0 {
		items = doc.Find(".contentItem, div.news-item")
	}
	items.Each(func(_ int, item *goquery.Selection) {
		headline := firstText(item, "h1", "h2", "h3", ".contentItem__title", "a")
		if headline == "" {
			return
		}
		published := ""
		if tm := item.Find("time").First(); tm.Length() > 0 {
			published = fallbackString(tm.AttrOr("datetime", ""), extract.CellText(tm))
		}
		if published == "" {
			published = firstText(item, "span.date", ".contentMeta__timestamp")
		}
		link, _ := item.Find("a[href]").First().Attr("href")
		t.Rows = append(t.Rows, []string{
			headline,
			published,
			firstText(item, "p", "div.summary", ".contentItem__subhead"),
			link,
		})
	})
	return t
}

func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if found := sel.Find(s).First(); found.Length() > 0 {
			if text := extract.CellText(found); text != "" {
				return text
			}
		}
	}
	return ""
}

var gameDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
}

// gameDate normalizes the API's timestamps to YYYY-MM-DD.
func gameDate(raw string) string {
	if raw == "" {
		return extract.NotAvailable
	}
	for _, layout := range gameDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func fallbackString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
