package models

import (
	"time"

	"gorm.io/datatypes"
)

// HarvestRun protokolliert einen kompletten Pipeline-Durchlauf.
// Summary enthält pro Faculty die Anzahl akzeptierter Publikationen.
type HarvestRun struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Faculty    int            `json:"faculty"`
	Failed     int            `json:"failed"`
	Summary    datatypes.JSON `json:"summary" gorm:"type:jsonb"`
}

// TableName gibt explizit den Tabellennamen an.
func (HarvestRun) TableName() string {
	return "harvest_runs"
}
