package espn

import "encoding/json"

// splitsResponse is the athlete splits API payload.
type splitsResponse struct {
	Names           []string        `json:"names"`
	Labels          []string        `json:"labels"`
	SplitCategories []splitCategory `json:"splitCategories"`
}

type splitCategory struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName"`
	Splits      []splitLine `json:"splits"`
}

type splitLine struct {
	DisplayName  string   `json:"displayName"`
	Abbreviation string   `json:"abbreviation"`
	Stats        []string `json:"stats"`
}

// gamelogResponse is the athlete gamelog API payload. Stats live under
// seasonTypes, game details under events keyed by event id.
type gamelogResponse struct {
	Labels      []string                `json:"labels"`
	Names       []string                `json:"names"`
	Events      map[string]gamelogEvent `json:"events"`
	SeasonTypes []gamelogSeasonType     `json:"seasonTypes"`
}

type gamelogEvent struct {
	ID         string `json:"id"`
	GameDate   string `json:"gameDate"`
	AtVs       string `json:"atVs"`
	GameResult string `json:"gameResult"`
	Score      string `json:"score"`
	Opponent   struct {
		Abbreviation string `json:"abbreviation"`
		DisplayName  string `json:"displayName"`
	} `json:"opponent"`
}

type gamelogSeasonType struct {
	DisplayName string            `json:"displayName"`
	Categories  []gamelogCategory `json:"categories"`
}

type gamelogCategory struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
	Events      []struct {
		EventID string   `json:"eventId"`
		Stats   []string `json:"stats"`
	} `json:"events"`
}

// rosterResponse is the team roster API payload. Athletes arrive either
// grouped by position ({"position": "pitchers", "items": [...]}) or flat.
type rosterResponse struct {
	Team struct {
		ID           string `json:"id"`
		Abbreviation string `json:"abbreviation"`
		Location     string `json:"location"`
		Name         string `json:"name"`
		DisplayName  string `json:"displayName"`
	} `json:"team"`
	Athletes []rosterAthlete `json:"athletes"`
}

type rosterAthlete struct {
	ID            string          `json:"id"`
	FullName      string          `json:"fullName"`
	Jersey        string          `json:"jersey"`
	Age           int             `json:"age"`
	DisplayHeight string          `json:"displayHeight"`
	DisplayWeight string          `json:"displayWeight"`
	Position      json.RawMessage `json:"position"`
	Bats          abbreviated     `json:"bats"`
	Throws        abbreviated     `json:"throws"`
	BirthPlace    struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"birthPlace"`
	Items []rosterAthlete `json:"items"`
}

type abbreviated struct {
	Abbreviation string `json:"abbreviation"`
	DisplayValue string `json:"displayValue"`
}

// bioResponse is the athlete API payload. Some hosts wrap the athlete in
// an "athlete" object; others return it at the top level.
type bioResponse struct {
	Athlete *bioAthlete `json:"athlete"`
	bioAthlete
}

type bioAthlete struct {
	ID            string          `json:"id"`
	FullName      string          `json:"fullName"`
	Jersey        string          `json:"jersey"`
	Age           int             `json:"age"`
	DisplayHeight string          `json:"displayHeight"`
	DisplayWeight string          `json:"displayWeight"`
	Position      json.RawMessage `json:"position"`
	Team          struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
	BirthPlace struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"birthPlace"`
	College struct {
		Name string `json:"name"`
	} `json:"college"`
	Experience struct {
		Years int `json:"years"`
	} `json:"experience"`
}

func (r bioResponse) athlete() bioAthlete {
	if r.Athlete != nil {
		return *r.Athlete
	}
	return r.bioAthlete
}
