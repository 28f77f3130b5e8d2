package services

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pubtrack/config"
	"pubtrack/models"
	"pubtrack/providers/entrez"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Resolution ist das Ergebnis der Identitäts- und Affiliations-Auflösung
// für einen Kandidaten-Batch eines Faculty-Mitglieds.
type Resolution struct {
	// Accepted enthält die PMIDs, deren gematchter Autor die
	// Affiliations-Prüfung bestanden hat.
	Accepted map[string]bool
	// Matched enthält alle PMIDs mit gematchtem Autor, auch die von der
	// Affiliations-Prüfung abgelehnten.
	Matched map[string]bool
	// Dates ist das beste verfügbare Publikationsdatum pro PMID.
	Dates map[string]*time.Time
	// Coauthors sind die übrigen Autoren pro PMID (ohne den gematchten).
	Coauthors map[string][]string
	// Authorship sind die Positions-Fakten pro PMID.
	Authorship map[string]models.Authorship
	// MissingAffiliation zählt PMIDs, deren gematchter Autor keinerlei
	// Affiliation-Strings trug und die deshalb optimistisch übernommen
	// wurden.
	MissingAffiliation []string
}

// Resolver entscheidet pro Kandidat, ob der gematchte Autor wirklich das
// gesuchte Faculty-Mitglied ist, und prüft dessen Affiliationen.
type Resolver struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewResolver erstellt einen Resolver.
func NewResolver(cfg *config.Config, logger *zap.Logger) *Resolver {
	return &Resolver{Config: cfg, Logger: logger}
}

// Resolve wendet das Author-Matching und die Affiliations-Entscheidung auf
// einen Artikel-Batch an. Kandidaten ohne gematchten Autor tauchen in
// keiner der Ergebnis-Maps auf.
func (r *Resolver) Resolve(fac *models.Faculty, articles []entrez.Article) Resolution {
	res := Resolution{
		Accepted:   map[string]bool{},
		Matched:    map[string]bool{},
		Dates:      map[string]*time.Time{},
		Coauthors:  map[string][]string{},
		Authorship: map[string]models.Authorship{},
	}

	for i := range articles {
		article := &articles[i]
		pos, ok := r.matchAuthor(fac, article.Authors)
		if !ok {
			continue
		}

		res.Matched[article.PMID] = true
		res.Dates[article.PMID] = article.Date

		total := len(article.Authors)
		res.Authorship[article.PMID] = models.Authorship{
			Position: pos,
			Total:    total,
			IsFirst:  pos == 0,
			IsLast:   pos == total-1,
		}

		var coauthors []string
		for j, author := range article.Authors {
			if j == pos {
				continue
			}
			if name := displayName(author); name != "" {
				coauthors = append(coauthors, name)
			}
		}
		res.Coauthors[article.PMID] = coauthors

		accepted, missing := r.checkAffiliation(fac, article.Authors[pos])
		if missing {
			res.MissingAffiliation = append(res.MissingAffiliation, article.PMID)
			r.Logger.Warn("Matched author has no affiliation on record, keeping optimistically",
				zap.String("faculty_id", fac.ID),
				zap.String("pmid", article.PMID))
		}
		if accepted {
			res.Accepted[article.PMID] = true
		}
	}

	return res
}

// matchAuthor sucht die erste Position der Autorenliste, die das
// Faculty-Mitglied sein kann. Prioritäten: (1) ORCID-Gleichheit,
// (2) exakter normalisierter Nachname plus verträglicher Vorname.
// Die erste passende Position gewinnt.
func (r *Resolver) matchAuthor(fac *models.Faculty, authors []entrez.Author) (int, bool) {
	facORCID := normalizeID(fac.ORCID)

	for i, author := range authors {
		if facORCID != "" && normalizeID(author.ORCID) != "" {
			if facORCID == normalizeID(author.ORCID) {
				return i, true
			}
		}

		authorFamily := normalizeName(author.LastName)
		if authorFamily == "" {
			continue
		}
		authorGiven := normalizeName(author.ForeName)
		if authorGiven == "" {
			authorGiven = normalizeName(author.Initials)
		}

		for _, v := range fac.Variants {
			if normalizeName(v.Family) != authorFamily {
				continue
			}
			if givenCompatible(normalizeName(v.Given), authorGiven, r.Config.MatchInitials) {
				return i, true
			}
		}
	}
	return 0, false
}

// checkAffiliation prüft die Affiliation-Strings der gematchten Position
// gegen die erlaubten Begriffe (Faculty-Terme plus Default-Institution).
// Ohne hinterlegte Affiliation entscheidet die AcceptUnknownAffiliation-
// Politik; fehlende Daten sollen einen echten Treffer nicht still
// verwerfen.
func (r *Resolver) checkAffiliation(fac *models.Faculty, author entrez.Author) (accepted, missing bool) {
	if !r.Config.ValidateAffiliations {
		return true, false
	}

	if len(author.Affiliations) == 0 {
		return r.Config.AcceptUnknownAffiliation, true
	}

	terms := make([]string, 0, len(fac.AffiliationTerms)+1)
	for _, t := range fac.AffiliationTerms {
		if n := normalizeAffiliation(t); n != "" {
			terms = append(terms, n)
		}
	}
	if n := normalizeAffiliation(r.Config.DefaultInstitution); n != "" {
		terms = append(terms, n)
	}

	for _, aff := range author.Affiliations {
		norm := normalizeAffiliation(aff)
		for _, term := range terms {
			if strings.Contains(norm, term) {
				return true, false
			}
		}
	}
	return false, false
}

// givenCompatible vergleicht normalisierte Vornamen: exakt, Präfix in
// eine der beiden Richtungen ("jane" vs "j"), oder bei aktivem
// Initialen-Matching Gleichheit des ersten Buchstabens.
func givenCompatible(want, got string, matchInitials bool) bool {
	if want == "" || got == "" {
		// Ohne Vergleichsbasis reicht der Nachname nicht.
		return want == got
	}
	if want == got {
		return true
	}
	if strings.HasPrefix(want, got) || strings.HasPrefix(got, want) {
		return true
	}
	if matchInitials {
		return want[0] == got[0]
	}
	return false
}

// normalizeID entfernt alle Nicht-Alphanumerika aus einem Identifier
// (ORCID-Schreibweisen variieren zwischen URL- und Bindestrich-Form).
func normalizeID(id string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(id), "")
}

// foldDiacritics entfernt kombinierende Akzente (NFD-Zerlegung, Mn-Runen
// raus, NFC zurück): "García" wird zu "Garcia". Die Schreibweise mit und
// ohne Akzent variiert zwischen Roster und Record.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// normalizeName reduziert einen Namen auf akzentfreie Kleinbuchstaben.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(foldDiacritics(name)) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeAffiliation reduziert einen Affiliation-String auf akzentfreie
// Kleinbuchstaben und Ziffern für den Substring-Vergleich.
func normalizeAffiliation(aff string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(foldDiacritics(aff)), "")
}

// displayName baut den Anzeigenamen eines Autoren-Eintrags.
func displayName(author entrez.Author) string {
	given := author.ForeName
	if given == "" {
		given = author.Initials
	}
	name := strings.TrimSpace(given + " " + author.LastName)
	return name
}
