package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pubtrack/config"
	"pubtrack/models"
	"pubtrack/providers/entrez"
)

func newResolver(cfg *config.Config) *Resolver {
	return NewResolver(cfg, zap.NewNop())
}

func baseConfig() *config.Config {
	return &config.Config{
		ValidateAffiliations:     true,
		AcceptUnknownAffiliation: true,
		DefaultInstitution:       "university of minnesota",
	}
}

func article(pmid string, authors ...entrez.Author) entrez.Article {
	return entrez.Article{PMID: pmid, Title: "t", Authors: authors}
}

func TestResolveMatchesNameVariantsConsistently(t *testing.T) {
	// Beide Schreibweisen müssen matchen und dieselbe Entscheidung
	// liefern, keine doppelte Akzeptanz, egal in welcher Reihenfolge
	// die Varianten stehen.
	fac := &models.Faculty{
		ID: "smith-jane",
		Variants: []models.NameVariant{
			{Given: "J", Family: "Smith"},
			{Given: "Jane", Family: "Smith"},
		},
		AffiliationTerms: []string{"dept of medicine"},
	}

	r := newResolver(baseConfig())
	res := r.Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Smith", ForeName: "J", Affiliations: []string{"Dept of Medicine"}}),
		article("2", entrez.Author{LastName: "Smith", ForeName: "Jane", Affiliations: []string{"Dept of Medicine"}}),
	})

	assert.True(t, res.Accepted["1"])
	assert.True(t, res.Accepted["2"])
	assert.Len(t, res.Accepted, 2)
	// Gleiche Position, gleiches Ergebnis für beide Varianten.
	assert.Equal(t, res.Authorship["1"].Position, res.Authorship["2"].Position)
}

func TestResolveInitialsDisabledRejectsInitialsOnly(t *testing.T) {
	cfg := baseConfig()
	cfg.MatchInitials = false
	fac := &models.Faculty{
		ID:       "smith-jane",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}

	// "Jo" teilt mit "Jane" nur den ersten Buchstaben, ist aber kein
	// Präfix und darf ohne Initialen-Matching nicht matchen.
	r := newResolver(cfg)
	res := r.Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Smith", ForeName: "Jo", Affiliations: []string{"University of Minnesota"}}),
	})
	assert.Empty(t, res.Matched, "first-initial match must not fire when initials matching is disabled")

	cfg.MatchInitials = true
	res = newResolver(cfg).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Smith", ForeName: "Jo", Affiliations: []string{"University of Minnesota"}}),
	})
	assert.True(t, res.Matched["1"])
}

func TestResolvePrefixHandlesInitialsForm(t *testing.T) {
	fac := &models.Faculty{
		ID:       "smith-jane",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}

	// "Smith J" (ForeName fehlt, nur Initials): "j" ist Präfix von "jane".
	res := newResolver(baseConfig()).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Smith", Initials: "J", Affiliations: []string{"University of Minnesota"}}),
	})
	assert.True(t, res.Accepted["1"])
}

func TestResolveFoldsDiacritics(t *testing.T) {
	// Roster ohne Akzente, Record mit: "García" muss auf "Garcia"
	// normalisieren, sonst matchen die beiden Schreibweisen nie.
	fac := &models.Faculty{
		ID:       "garcia-jose",
		Variants: []models.NameVariant{{Given: "Jose", Family: "Garcia"}},
	}

	res := newResolver(baseConfig()).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "García", ForeName: "José",
			Affiliations: []string{"University of Minnesota"}}),
	})
	assert.True(t, res.Accepted["1"])

	// Und umgekehrt: akzentuiertes Roster gegen akzentfreien Record.
	fac = &models.Faculty{
		ID:               "garcia-jose",
		Variants:         []models.NameVariant{{Given: "José", Family: "García"}},
		AffiliationTerms: []string{"Universität Tübingen"},
	}
	res = newResolver(baseConfig()).Resolve(fac, []entrez.Article{
		article("2", entrez.Author{LastName: "Garcia", ForeName: "Jose",
			Affiliations: []string{"Universitat Tubingen"}}),
	})
	assert.True(t, res.Accepted["2"])
}

func TestResolveORCIDBeatsNameMismatch(t *testing.T) {
	fac := &models.Faculty{
		ID:       "smith-jane",
		ORCID:    "0000-0001-2345-6789",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}

	// Verheirateter Name, aber passende ORCID in URL-Schreibweise.
	res := newResolver(baseConfig()).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{
			LastName: "Jones", ForeName: "Jane",
			ORCID:        "https://orcid.org/0000-0001-2345-6789",
			Affiliations: []string{"University of Minnesota"},
		}),
	})
	assert.True(t, res.Accepted["1"])
}

func TestResolveAffiliationScenario(t *testing.T) {
	// Zwei Kandidaten mit identischem Autor, nur die Minnesota-
	// Affiliation wird akzeptiert.
	cfg := baseConfig()
	cfg.MatchInitials = true
	start := date(2020, 1, 1)
	fac := &models.Faculty{
		ID:        "larson-erin",
		Variants:  []models.NameVariant{{Given: "Erin", Family: "Larson"}},
		StartDate: &start,
	}

	res := newResolver(cfg).Resolve(fac, []entrez.Article{
		article("100", entrez.Author{LastName: "Larson", Initials: "EW",
			Affiliations: []string{"University of Minnesota Dept of Medicine"}}),
		article("200", entrez.Author{LastName: "Larson", Initials: "EW",
			Affiliations: []string{"University of Wisconsin"}}),
	})

	assert.True(t, res.Accepted["100"])
	assert.False(t, res.Accepted["200"])
	assert.True(t, res.Matched["200"], "rejected candidate still matched the author")
}

func TestResolveMissingAffiliationPolicy(t *testing.T) {
	fac := &models.Faculty{
		ID:       "smith-jane",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}

	cfg := baseConfig()
	res := newResolver(cfg).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Smith", ForeName: "Jane"}),
	})
	assert.True(t, res.Accepted["1"], "missing affiliation data keeps a likely-true match")
	assert.Equal(t, []string{"1"}, res.MissingAffiliation)

	cfg.AcceptUnknownAffiliation = false
	res = newResolver(cfg).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Smith", ForeName: "Jane"}),
	})
	assert.False(t, res.Accepted["1"])
}

func TestResolveAuthorshipPosition(t *testing.T) {
	fac := &models.Faculty{
		ID:       "smith-jane",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}

	authors := []entrez.Author{
		{LastName: "Adams", ForeName: "A"},
		{LastName: "Baker", ForeName: "B"},
		{LastName: "Clark", ForeName: "C"},
		{LastName: "Davis", ForeName: "D"},
		{LastName: "Smith", ForeName: "Jane", Affiliations: []string{"University of Minnesota"}},
	}
	res := newResolver(baseConfig()).Resolve(fac, []entrez.Article{article("1", authors...)})

	a := res.Authorship["1"]
	assert.Equal(t, models.Authorship{Position: 4, Total: 5, IsFirst: false, IsLast: true}, a)
	assert.False(t, a.IsSole())

	// Mit-Autoren sind alle außer dem gematchten.
	require.Len(t, res.Coauthors["1"], 4)
	assert.NotContains(t, res.Coauthors["1"], "Jane Smith")
}

func TestResolveSoleAuthorIsFirstAndLast(t *testing.T) {
	fac := &models.Faculty{
		ID:       "smith-jane",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}
	res := newResolver(baseConfig()).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Smith", ForeName: "Jane", Affiliations: []string{"University of Minnesota"}}),
	})

	a := res.Authorship["1"]
	assert.True(t, a.IsFirst)
	assert.True(t, a.IsLast)
	assert.True(t, a.IsSole())
	assert.Empty(t, res.Coauthors["1"])
}

func TestResolveFirstMatchWins(t *testing.T) {
	// Zwei Autoren könnten matchen; die erste Position gewinnt.
	fac := &models.Faculty{
		ID:       "smith-jane",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}
	res := newResolver(baseConfig()).Resolve(fac, []entrez.Article{
		article("1",
			entrez.Author{LastName: "Smith", ForeName: "J", Affiliations: []string{"University of Minnesota"}},
			entrez.Author{LastName: "Smith", ForeName: "Jane", Affiliations: []string{"University of Minnesota"}},
		),
	})
	assert.Equal(t, 0, res.Authorship["1"].Position)
}

func TestResolveUnmatchedCandidateIsDiscarded(t *testing.T) {
	fac := &models.Faculty{
		ID:       "smith-jane",
		Variants: []models.NameVariant{{Given: "Jane", Family: "Smith"}},
	}
	res := newResolver(baseConfig()).Resolve(fac, []entrez.Article{
		article("1", entrez.Author{LastName: "Miller", ForeName: "Tom"}),
	})
	assert.Empty(t, res.Matched)
	assert.Empty(t, res.Accepted)
	assert.NotContains(t, res.Authorship, "1")
}
