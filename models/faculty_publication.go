package models

import "time"

// FacultyPublication verknüpft ein Faculty-Mitglied mit einer Publikation.
// First/LastSeen dokumentieren, wann der Resolver die Zuordnung zum ersten
// bzw. letzten Mal gesehen hat; LastSeen wird bei jedem erneuten Auftauchen
// verlängert.
type FacultyPublication struct {
	FacultyID   string    `json:"faculty_id" gorm:"primaryKey;size:128"`
	PMID        string    `json:"pmid" gorm:"column:pmid;primaryKey;size:32"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	Source      string    `json:"source" gorm:"default:'pubmed'"`
}

// TableName gibt explizit den Tabellennamen an.
func (FacultyPublication) TableName() string {
	return "faculty_publications"
}

// Coauthor ist ein Mit-Autor einer Publikation aus Sicht eines
// Faculty-Mitglieds (alle Autoren außer dem gematchten selbst).
// Die Zeilen einer (faculty, pmid)-Paarung werden bei jedem Re-Resolve
// komplett ersetzt.
type Coauthor struct {
	FacultyID string `json:"faculty_id" gorm:"primaryKey;size:128"`
	PMID      string `json:"pmid" gorm:"column:pmid;primaryKey;size:32"`
	Name      string `json:"name" gorm:"primaryKey;size:255"`
}

// TableName gibt explizit den Tabellennamen an.
func (Coauthor) TableName() string {
	return "faculty_publication_coauthors"
}
