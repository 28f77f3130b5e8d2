package models

// Dataset ist das finale Ausgabedokument eines Laufs. Es wird bei jedem
// Lauf atomar überschrieben; abgesehen von Updated ist die Ausgabe bei
// unveränderten Eingaben identisch.
type Dataset struct {
	Updated string         `json:"updated"`
	Source  string         `json:"source"`
	Faculty []FacultyEntry `json:"faculty"`
}

// FacultyEntry ist der Ausgabe-Block eines Faculty-Mitglieds.
type FacultyEntry struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Department   string             `json:"department,omitempty"`
	ORCID        string             `json:"orcid,omitempty"`
	Programs     []string           `json:"programs,omitempty"`
	Publications []PublicationEntry `json:"publications"`
	AuthorCounts *AuthorCounts      `json:"authorCounts,omitempty"`
	Grants       []GrantEntry       `json:"grants,omitempty"`
	Signals      SignalPair         `json:"signals"`
}

// PublicationEntry ist eine Publikation im Ausgabedokument.
type PublicationEntry struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Journal    string      `json:"journal,omitempty"`
	Year       int         `json:"year,omitempty"`
	DOI        string      `json:"doi,omitempty"`
	URL        string      `json:"url,omitempty"`
	Authorship *Authorship `json:"authorship,omitempty"`
}

// GrantEntry ist ein Funding Award im Ausgabedokument.
type GrantEntry struct {
	ProjectNum string `json:"projectNum"`
	Title      string `json:"title"`
	FiscalYear int    `json:"fiscalYear,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	Agency     string `json:"agency,omitempty"`
}

// AuthorCounts zählt die aufgelösten Autorschafts-Positionen.
type AuthorCounts struct {
	First  int `json:"first"`
	Last   int `json:"last"`
	Sole   int `json:"sole"`
	Middle int `json:"middle"`
}

// SignalPair stellt die Signale der akzeptierten Menge denen der
// aussortierten (false_positive) Menge gegenüber.
type SignalPair struct {
	Positive Signals `json:"positive"`
	Negative Signals `json:"negative"`
}
