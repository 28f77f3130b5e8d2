package models

import "time"

// Verdict-Werte für die manuelle Kuration.
const (
	VerdictTruePositive  = "true_positive"
	VerdictFalsePositive = "false_positive"
)

// Curation ist ein menschliches Urteil über eine (faculty, pmid)-Paarung.
// Es überschreibt die automatische Entscheidung des Resolvers in beide
// Richtungen: true_positive erzwingt Aufnahme, false_positive erzwingt
// Ausschluss. Pro Paarung existiert höchstens ein Urteil; ein neues
// ersetzt das alte.
type Curation struct {
	FacultyID string    `json:"faculty_id" gorm:"primaryKey;size:128"`
	PMID      string    `json:"pmid" gorm:"column:pmid;primaryKey;size:32"`
	Verdict   string    `json:"verdict" gorm:"size:32;not null"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (Curation) TableName() string {
	return "curation"
}
