package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pubtrack/config"
	"pubtrack/models"
)

// Window ist das Publikationsdatums-Fenster einer Suche.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow bestimmt das Suchfenster: explizite Konfigurationsgrenzen
// gehen vor, sonst das Tenure-Startdatum des Faculty-Mitglieds; ohne
// beides wird die gesamte registrierte Historie bis heute abgedeckt.
func ResolveWindow(cfg *config.Config, fac *models.Faculty, now time.Time) Window {
	w := Window{End: now}
	if cfg.WindowEnd != "" {
		if t, err := time.Parse("2006-01-02", cfg.WindowEnd); err == nil {
			w.End = t
		}
	}
	if cfg.WindowStart != "" {
		if t, err := time.Parse("2006-01-02", cfg.WindowStart); err == nil {
			w.Start = t
			return w
		}
	}
	if fac.StartDate != nil {
		w.Start = *fac.StartDate
	}
	return w
}

// Contains meldet, ob t im Fenster liegt (inklusive Grenzen).
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	return !t.After(w.End)
}

// BuildTerm baut den PubMed-Suchausdruck für ein Faculty-Mitglied:
// eine Author-Klausel als Vereinigung aller Namensvarianten (plus
// Nachname-und-Initiale-Formen, wenn kein ORCID vorliegt und Initialen-
// Matching aktiv ist), ODER-verknüpft mit einer ORCID-Klausel, UND einem
// Publikationsdatums-Fenster. Der Ausdruck braucht nur Recall; Präzision
// erzwingt der Resolver nachgelagert.
func BuildTerm(fac *models.Faculty, w Window, matchInitials bool) string {
	var clauses []string
	seen := map[string]bool{}
	add := func(clause string) {
		if clause != "" && !seen[clause] {
			seen[clause] = true
			clauses = append(clauses, clause)
		}
	}

	for _, v := range fac.Variants {
		if v.Family == "" {
			continue
		}
		if v.Given != "" {
			add(fmt.Sprintf("%s %s[Author]", v.Family, v.Given))
		} else {
			add(fmt.Sprintf("%s[Author]", v.Family))
		}
	}

	// Die Initialen-Form hat deutlich höheres False-Positive-Risiko und
	// kommt nur ohne ORCID und mit aktivem Initialen-Matching dazu.
	if fac.ORCID == "" && matchInitials {
		for _, v := range fac.Variants {
			if v.Family == "" || v.Given == "" {
				continue
			}
			// Erste Rune, nicht erstes Byte; Vornamen wie "Émile" sind
			// kein ASCII.
			r, _ := utf8.DecodeRuneInString(v.Given)
			initial := strings.ToUpper(string(r))
			add(fmt.Sprintf("%s %s[Author]", v.Family, initial))
		}
	}

	if fac.ORCID != "" {
		add(fmt.Sprintf("%s[auid]", fac.ORCID))
	}

	author := strings.Join(clauses, " OR ")
	if len(clauses) > 1 {
		author = "(" + author + ")"
	}

	return author + " AND " + dateClause(w)
}

// dateClause formatiert das Datums-Fenster; bei start==end als Einzeltag.
func dateClause(w Window) string {
	start := w.Start
	if start.IsZero() {
		// Gesamte Historie abdecken.
		start = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	from := start.Format("2006/01/02")
	to := w.End.Format("2006/01/02")
	if from == to {
		return fmt.Sprintf("%q[Date - Publication]", from)
	}
	return fmt.Sprintf("(%q[Date - Publication] : %q[Date - Publication])", from, to)
}
