package models

import "time"

// FacultyGrant ist ein Funding Award aus NIH RePORTER, zugeordnet zu einem
// Faculty-Mitglied. Schlüssel ist die Projektnummer pro Faculty.
type FacultyGrant struct {
	FacultyID  string    `json:"faculty_id" gorm:"primaryKey;size:128"`
	ProjectNum string    `json:"project_num" gorm:"primaryKey;size:64"`
	Title      string    `json:"title" gorm:"type:text"`
	FiscalYear int       `json:"fiscal_year" gorm:"index"`
	Amount     int64     `json:"amount"`
	Agency     string    `json:"agency"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (FacultyGrant) TableName() string {
	return "faculty_grants"
}
