package models

import "time"

// Publication ist der kanonische, global deduplizierte Publikations-Datensatz.
// Es gibt genau eine Zeile pro PMID, egal wie viele Faculty-Mitglieder
// damit verknüpft sind. Zeilen werden nie gelöscht.
type Publication struct {
	PMID      string    `json:"pmid" gorm:"column:pmid;primaryKey;size:32"`
	Title     string    `json:"title" gorm:"type:text"`
	Journal   string    `json:"journal"`
	Year      int       `json:"year" gorm:"index"`
	DOI       string    `json:"doi,omitempty" gorm:"column:doi;index"`
	URL       string    `json:"url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (Publication) TableName() string {
	return "publications"
}
