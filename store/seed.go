package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"pubtrack/models"
)

// legacySeedEntry ist das Format der historischen Flat-File pro Faculty.
type legacySeedEntry struct {
	TruePositives  []string `json:"true_positives"`
	FalsePositives []string `json:"false_positives"`
}

// SeedLegacyCuration importiert die historischen True/False-Positive-Listen
// genau einmal. Sobald irgendeine Kurations-Zeile existiert, passiert hier
// nichts mehr; manuelle Korrekturen werden also nie überschrieben.
func (s *Store) SeedLegacyCuration(path string) error {
	var count int64
	if err := s.DB.Model(&models.Curation{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var seed map[string]legacySeedEntry
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parsing legacy curation file %s: %w", path, err)
	}

	now := time.Now().UTC()
	inserted := 0
	for facultyID, entry := range seed {
		for _, pmid := range entry.TruePositives {
			row := models.Curation{
				FacultyID: facultyID, PMID: pmid,
				Verdict: models.VerdictTruePositive, Reason: "legacy-seed", UpdatedAt: now,
			}
			if err := s.DB.Create(&row).Error; err != nil {
				return err
			}
			inserted++
		}
		for _, pmid := range entry.FalsePositives {
			row := models.Curation{
				FacultyID: facultyID, PMID: pmid,
				Verdict: models.VerdictFalsePositive, Reason: "legacy-seed", UpdatedAt: now,
			}
			if err := s.DB.Create(&row).Error; err != nil {
				return err
			}
			inserted++
		}
	}

	s.Logger.Info("Legacy curation file seeded", zap.String("path", path), zap.Int("verdicts", inserted))
	return nil
}
