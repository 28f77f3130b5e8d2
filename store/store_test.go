package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pubtrack/models"
)

// newTestStore öffnet eine In-Memory-SQLite-Datenbank pro Test. cache=shared
// hält die Datenbank über alle Verbindungen des Pools am Leben.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	s := New(db, zap.NewNop())
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestUpsertPublicationIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertPublication(&models.Publication{
		PMID: "100", Title: "Old Title", Journal: "J1", Year: 2020,
	}))
	require.NoError(t, s.UpsertPublication(&models.Publication{
		PMID: "100", Title: "New Title", Journal: "J1", Year: 2020, DOI: "10.1/x",
	}))

	var pubs []models.Publication
	require.NoError(t, s.DB.Find(&pubs).Error)
	require.Len(t, pubs, 1)
	assert.Equal(t, "New Title", pubs[0].Title)
	assert.Equal(t, "10.1/x", pubs[0].DOI)
}

func TestUpsertAssociationPreservesFirstSeen(t *testing.T) {
	s := newTestStore(t)

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	require.NoError(t, s.UpsertAssociation("smith-j", "100", "pubmed", first))
	require.NoError(t, s.UpsertAssociation("smith-j", "100", "pubmed", later))

	var assoc models.FacultyPublication
	require.NoError(t, s.DB.First(&assoc).Error)
	assert.True(t, assoc.FirstSeenAt.Equal(first), "first_seen_at must not move")
	assert.True(t, assoc.LastSeenAt.Equal(later), "last_seen_at must advance")
}

func TestReplaceCoauthorsReplacesAndDedupes(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceCoauthors("smith-j", "100", []string{"Anna Adams", "Bob Baker"}))
	require.NoError(t, s.ReplaceCoauthors("smith-j", "100", []string{"Carla Chen", "Carla Chen", ""}))

	coauthors, err := s.CoauthorsFor("smith-j")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"100": {"Carla Chen"}}, coauthors)
}

func TestReplaceCoauthorsEmptyListClears(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceCoauthors("smith-j", "100", []string{"Anna Adams"}))
	require.NoError(t, s.ReplaceCoauthors("smith-j", "100", nil))

	coauthors, err := s.CoauthorsFor("smith-j")
	require.NoError(t, err)
	assert.Empty(t, coauthors)
}

func TestSetVerdictRejectsUnknownValue(t *testing.T) {
	s := newTestStore(t)
	err := s.SetVerdict("smith-j", "100", "maybe", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verdict")
}

func TestSetVerdictReplacesEarlierVerdict(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetVerdict("smith-j", "100", models.VerdictFalsePositive, "wrong person"))
	require.NoError(t, s.SetVerdict("smith-j", "100", models.VerdictTruePositive, "confirmed after all"))

	verdicts, err := s.VerdictsFor("smith-j")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"100": models.VerdictTruePositive}, verdicts)
}

func TestAcceptedPublicationsHonorsCuration(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	for _, pub := range []models.Publication{
		{PMID: "100", Title: "Kept", Year: 2021},
		{PMID: "200", Title: "Rejected", Year: 2022},
		{PMID: "300", Title: "Confirmed", Year: 2020},
	} {
		p := pub
		require.NoError(t, s.UpsertPublication(&p))
		require.NoError(t, s.UpsertAssociation("smith-j", p.PMID, "pubmed", now))
	}
	require.NoError(t, s.SetVerdict("smith-j", "200", models.VerdictFalsePositive, ""))
	require.NoError(t, s.SetVerdict("smith-j", "300", models.VerdictTruePositive, ""))

	accepted, err := s.AcceptedPublications("smith-j")
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	// Jahr absteigend, also 2021 vor 2020.
	assert.Equal(t, "100", accepted[0].PMID)
	assert.Equal(t, "300", accepted[1].PMID)

	rejected, err := s.RejectedPublications("smith-j")
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "200", rejected[0].PMID)
}

func TestAcceptedPublicationsScopedPerFaculty(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	pub := models.Publication{PMID: "100", Title: "Shared", Year: 2021}
	require.NoError(t, s.UpsertPublication(&pub))
	require.NoError(t, s.UpsertAssociation("smith-j", "100", "pubmed", now))
	require.NoError(t, s.UpsertAssociation("doe-a", "100", "pubmed", now))

	// Das Urteil von smith-j darf doe-a nicht berühren.
	require.NoError(t, s.SetVerdict("smith-j", "100", models.VerdictFalsePositive, ""))

	accepted, err := s.AcceptedPublications("smith-j")
	require.NoError(t, err)
	assert.Empty(t, accepted)

	accepted, err = s.AcceptedPublications("doe-a")
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

func TestSeedLegacyCurationRunsAtMostOnce(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"smith-j": {"true_positives": ["100"], "false_positives": ["200"]}
	}`), 0o644))

	require.NoError(t, s.SeedLegacyCuration(path))

	rows, err := s.CurationList("smith-j")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "legacy-seed", rows[0].Reason)

	// Manuelle Korrektur, danach darf ein erneuter Seed nichts überschreiben.
	require.NoError(t, s.SetVerdict("smith-j", "100", models.VerdictFalsePositive, "manual"))
	require.NoError(t, s.SeedLegacyCuration(path))

	verdicts, err := s.VerdictsFor("smith-j")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictFalsePositive, verdicts["100"])
}

func TestSeedLegacyCurationMissingFileIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SeedLegacyCuration(filepath.Join(t.TempDir(), "nope.json")))

	rows, err := s.CurationList("smith-j")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpsertGrantsIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	grants := []models.FacultyGrant{
		{FacultyID: "smith-j", ProjectNum: "R01-1", Title: "Grant A", FiscalYear: 2024, Amount: 100000, Agency: "NIH"},
		{FacultyID: "smith-j", ProjectNum: "R01-2", Title: "Grant B", FiscalYear: 2025, Amount: 250000, Agency: "NIH"},
	}
	require.NoError(t, s.UpsertGrants(grants))

	grants[0].Amount = 150000
	require.NoError(t, s.UpsertGrants(grants))

	rows, err := s.GrantsFor("smith-j")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// fiscal_year absteigend.
	assert.Equal(t, "R01-2", rows[0].ProjectNum)
	assert.Equal(t, int64(150000), rows[1].Amount)
}
