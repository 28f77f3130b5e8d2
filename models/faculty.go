package models

import "time"

// NameVariant ist eine Schreibvariante eines Namens (Vorname, Nachname).
// Die Schreibweise variiert zwischen Publikationen, deshalb trägt jedes
// Faculty-Mitglied eine Menge von Varianten.
type NameVariant struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// Faculty ist die Identität, die das Harvesting steuert. Sie wird einmal
// pro Lauf aus dem Roster aufgebaut und ist innerhalb eines Laufs
// unveränderlich. Nicht persistiert.
type Faculty struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"name"`
	Variants    []NameVariant `json:"variants"`
	ORCID       string        `json:"orcid,omitempty"`
	Department  string        `json:"department,omitempty"`
	// AffiliationTerms sind die Begriffe, gegen die Affiliation-Strings
	// der gematchten Autoren-Position geprüft werden.
	AffiliationTerms []string   `json:"affiliation_terms,omitempty"`
	Programs         []string   `json:"programs,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
}

// Authorship beschreibt die Position des gematchten Autors in der
// geordneten Autorenliste eines Records. Ein Allein-Autor ist zugleich
// erster und letzter Autor.
type Authorship struct {
	Position int  `json:"position"`
	Total    int  `json:"total"`
	IsFirst  bool `json:"isFirst"`
	IsLast   bool `json:"isLast"`
}

// IsSole meldet Allein-Autorschaft.
func (a Authorship) IsSole() bool {
	return a.IsFirst && a.IsLast
}
