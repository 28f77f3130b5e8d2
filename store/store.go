// Package store kapselt alle Datenbankzugriffe. Sämtliche Schreibpfade
// sind als Upserts formuliert und damit nach einem Crash gefahrlos
// wiederholbar.
package store

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pubtrack/models"
)

// Store bündelt die Persistenz-Operationen der Pipeline.
type Store struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// New erstellt einen Store.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{DB: db, Logger: logger}
}

// AutoMigrate legt das Schema an bzw. zieht es nach.
func (s *Store) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.Publication{},
		&models.FacultyPublication{},
		&models.Curation{},
		&models.Coauthor{},
		&models.FacultyGrant{},
		&models.HarvestRun{},
	)
}

// UpsertPublication legt den kanonischen Publikations-Datensatz an oder
// überschreibt seine Metadaten-Felder. UpdatedAt wird dabei immer berührt.
func (s *Store) UpsertPublication(pub *models.Publication) error {
	pub.UpdatedAt = time.Now().UTC()
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pmid"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "journal", "year", "doi", "url", "updated_at"}),
	}).Create(pub).Error
}

// UpsertAssociation verknüpft Faculty und Publikation. Beim ersten Insert
// werden first_seen_at und last_seen_at gesetzt, bei jedem weiteren
// Auftauchen nur last_seen_at verlängert.
func (s *Store) UpsertAssociation(facultyID, pmid, source string, now time.Time) error {
	assoc := models.FacultyPublication{
		FacultyID:   facultyID,
		PMID:        pmid,
		FirstSeenAt: now,
		LastSeenAt:  now,
		Source:      source,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "faculty_id"}, {Name: "pmid"}},
		DoUpdates: clause.Assignments(map[string]any{"last_seen_at": now}),
	}).Create(&assoc).Error
}

// ReplaceCoauthors ersetzt die Mit-Autoren einer (faculty, pmid)-Paarung
// komplett. Die Liste wird bei jedem Re-Resolve neu aufgebaut.
func (s *Store) ReplaceCoauthors(facultyID, pmid string, names []string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("faculty_id = ? AND pmid = ?", facultyID, pmid).
			Delete(&models.Coauthor{}).Error; err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
		rows := make([]models.Coauthor, 0, len(names))
		seen := map[string]bool{}
		for _, name := range names {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			rows = append(rows, models.Coauthor{FacultyID: facultyID, PMID: pmid, Name: name})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// SetVerdict schreibt ein Kurations-Urteil. Ein bestehendes Urteil für
// dieselbe Paarung wird ersetzt.
func (s *Store) SetVerdict(facultyID, pmid, verdict, reason string) error {
	if verdict != models.VerdictTruePositive && verdict != models.VerdictFalsePositive {
		return fmt.Errorf("invalid verdict %q", verdict)
	}
	row := models.Curation{
		FacultyID: facultyID,
		PMID:      pmid,
		Verdict:   verdict,
		Reason:    reason,
		UpdatedAt: time.Now().UTC(),
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "faculty_id"}, {Name: "pmid"}},
		DoUpdates: clause.AssignmentColumns([]string{"verdict", "reason", "updated_at"}),
	}).Create(&row).Error
}

// VerdictsFor liefert alle Urteile eines Faculty-Mitglieds als
// PMID-zu-Verdict-Map.
func (s *Store) VerdictsFor(facultyID string) (map[string]string, error) {
	var rows []models.Curation
	if err := s.DB.Where("faculty_id = ?", facultyID).Find(&rows).Error; err != nil {
		return nil, err
	}
	verdicts := make(map[string]string, len(rows))
	for _, r := range rows {
		verdicts[r.PMID] = r.Verdict
	}
	return verdicts, nil
}

// CurationList liefert alle Urteile eines Faculty-Mitglieds.
func (s *Store) CurationList(facultyID string) ([]models.Curation, error) {
	var rows []models.Curation
	err := s.DB.Where("faculty_id = ?", facultyID).Order("pmid").Find(&rows).Error
	return rows, err
}

// AcceptedPublications liest die aktuell akzeptierten Publikationen eines
// Faculty-Mitglieds: verknüpft über faculty_publications, abzüglich der
// als false_positive kuratierten Paarungen.
func (s *Store) AcceptedPublications(facultyID string) ([]models.Publication, error) {
	var pubs []models.Publication
	err := s.DB.Model(&models.Publication{}).
		Joins("JOIN faculty_publications fp ON fp.pmid = publications.pmid AND fp.faculty_id = ?", facultyID).
		Joins("LEFT JOIN curation c ON c.pmid = publications.pmid AND c.faculty_id = ?", facultyID).
		Where("c.verdict IS NULL OR c.verdict <> ?", models.VerdictFalsePositive).
		Order("publications.year DESC, publications.pmid").
		Find(&pubs).Error
	return pubs, err
}

// RejectedPublications liest die als false_positive bestätigten
// Publikationen eines Faculty-Mitglieds, für den Signal-Vergleich.
func (s *Store) RejectedPublications(facultyID string) ([]models.Publication, error) {
	var pubs []models.Publication
	err := s.DB.Model(&models.Publication{}).
		Joins("JOIN curation c ON c.pmid = publications.pmid AND c.faculty_id = ?", facultyID).
		Where("c.verdict = ?", models.VerdictFalsePositive).
		Order("publications.year DESC, publications.pmid").
		Find(&pubs).Error
	return pubs, err
}

// CoauthorsFor liefert die Mit-Autoren eines Faculty-Mitglieds als
// PMID-zu-Namensliste-Map.
func (s *Store) CoauthorsFor(facultyID string) (map[string][]string, error) {
	var rows []models.Coauthor
	if err := s.DB.Where("faculty_id = ?", facultyID).Order("pmid, name").Find(&rows).Error; err != nil {
		return nil, err
	}
	coauthors := make(map[string][]string)
	for _, r := range rows {
		coauthors[r.PMID] = append(coauthors[r.PMID], r.Name)
	}
	return coauthors, nil
}

// UpsertGrants schreibt Funding Awards idempotent.
func (s *Store) UpsertGrants(grants []models.FacultyGrant) error {
	now := time.Now().UTC()
	for i := range grants {
		grants[i].UpdatedAt = now
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "faculty_id"}, {Name: "project_num"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "fiscal_year", "amount", "agency", "updated_at"}),
		}).Create(&grants[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// GrantsFor liefert die gespeicherten Awards eines Faculty-Mitglieds.
func (s *Store) GrantsFor(facultyID string) ([]models.FacultyGrant, error) {
	var rows []models.FacultyGrant
	err := s.DB.Where("faculty_id = ?", facultyID).
		Order("fiscal_year DESC, project_num").Find(&rows).Error
	return rows, err
}

// RecordRun protokolliert einen abgeschlossenen Lauf.
func (s *Store) RecordRun(run *models.HarvestRun) error {
	return s.DB.Create(run).Error
}
