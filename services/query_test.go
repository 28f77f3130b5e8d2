package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pubtrack/config"
	"pubtrack/models"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestBuildTermFullNamesOnly(t *testing.T) {
	fac := &models.Faculty{
		Variants: []models.NameVariant{
			{Given: "Jane", Family: "Smith"},
			{Given: "J", Family: "Smith"},
		},
	}
	w := Window{Start: date(2020, 1, 1), End: date(2024, 6, 30)}

	term := BuildTerm(fac, w, false)
	assert.Equal(t,
		`(Smith Jane[Author] OR Smith J[Author]) AND ("2020/01/01"[Date - Publication] : "2024/06/30"[Date - Publication])`,
		term)
}

func TestBuildTermInitialsOnlyWithoutORCID(t *testing.T) {
	fac := &models.Faculty{
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}
	w := Window{Start: date(2020, 1, 1), End: date(2021, 1, 1)}

	// Initialen-Form kommt nur ohne ORCID und mit aktivem Flag dazu.
	term := BuildTerm(fac, w, true)
	assert.Contains(t, term, "Smith J[Author]")

	fac.ORCID = "0000-0001-2345-6789"
	term = BuildTerm(fac, w, true)
	assert.NotContains(t, term, "Smith J[Author]")
	assert.Contains(t, term, "0000-0001-2345-6789[auid]")
}

func TestBuildTermInitialKeepsNonASCIIFirstLetter(t *testing.T) {
	fac := &models.Faculty{
		Variants: []models.NameVariant{{Given: "Émile", Family: "Durand"}},
	}
	w := Window{Start: date(2020, 1, 1), End: date(2021, 1, 1)}

	// Die Initiale ist die erste Rune, kein abgeschnittenes UTF-8-Byte.
	term := BuildTerm(fac, w, true)
	assert.Contains(t, term, "Durand É[Author]")
	assert.NotContains(t, term, "�")
}

func TestBuildTermSingleDayWindow(t *testing.T) {
	fac := &models.Faculty{Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}}}
	w := Window{Start: date(2023, 5, 1), End: date(2023, 5, 1)}

	term := BuildTerm(fac, w, false)
	assert.Equal(t, `Smith Jane[Author] AND "2023/05/01"[Date - Publication]`, term)
}

func TestBuildTermMissingStartCoversHistory(t *testing.T) {
	fac := &models.Faculty{Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}}}
	w := Window{End: date(2024, 1, 1)}

	term := BuildTerm(fac, w, false)
	assert.Contains(t, term, `"1800/01/01"[Date - Publication]`)
}

func TestResolveWindowPrecedence(t *testing.T) {
	now := date(2026, 8, 28)
	tenure := date(2020, 1, 1)
	fac := &models.Faculty{StartDate: &tenure}

	// Tenure-Datum als Fallback.
	w := ResolveWindow(&config.Config{}, fac, now)
	assert.Equal(t, tenure, w.Start)
	assert.Equal(t, now, w.End)

	// Explizite Grenzen gehen vor.
	cfg := &config.Config{WindowStart: "2022-07-01", WindowEnd: "2023-06-30"}
	w = ResolveWindow(cfg, fac, now)
	assert.Equal(t, date(2022, 7, 1), w.Start)
	assert.Equal(t, date(2023, 6, 30), w.End)

	// Ohne alles: gesamte Historie bis jetzt.
	w = ResolveWindow(&config.Config{}, &models.Faculty{}, now)
	assert.True(t, w.Start.IsZero())
	assert.Equal(t, now, w.End)
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: date(2020, 1, 1), End: date(2021, 1, 1)}
	assert.True(t, w.Contains(date(2020, 1, 1)))
	assert.True(t, w.Contains(date(2021, 1, 1)))
	assert.False(t, w.Contains(date(2019, 12, 31)))
	assert.False(t, w.Contains(date(2021, 1, 2)))
}
