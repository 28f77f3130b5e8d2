package services

import (
	"sort"
	"strings"

	"pubtrack/models"
)

// stopwords sind Titel-Tokens ohne Signalwert: englische Funktionswörter
// plus das übliche bibliometrische Füllvokabular. Tokens kürzer als drei
// Zeichen werden schon vor dem Lookup verworfen.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"are": true, "was": true, "were": true, "has": true, "have": true,
	"this": true, "that": true, "these": true, "those": true, "their": true,
	"its": true, "into": true, "among": true, "between": true, "during": true,
	"after": true, "before": true, "under": true, "over": true, "about": true,
	"can": true, "not": true, "does": true, "using": true, "use": true,
	"new": true, "via": true, "versus": true, "than": true, "when": true,
	"study": true, "studies": true, "analysis": true, "review": true,
	"systematic": true, "meta": true, "trial": true, "trials": true,
	"randomized": true, "controlled": true, "clinical": true, "cohort": true,
	"case": true, "cases": true, "report": true, "reports": true,
	"results": true, "outcomes": true, "outcome": true, "effects": true,
	"effect": true, "impact": true, "role": true, "association": true,
	"associated": true, "evaluation": true, "assessment": true,
	"comparison": true, "term": true, "long": true, "short": true,
	"follow": true, "followup": true, "based": true, "patients": true,
	"patient": true, "treatment": true, "therapy": true, "management": true,
	"risk": true, "factors": true, "factor": true, "evidence": true,
	"data": true, "approach": true, "model": true, "models": true,
}

// ComputeSignals berechnet die abgeleiteten Kennzahlen über eine
// Publikationsmenge: Zähler, Jahresspanne und -histogramm sowie die
// häufigsten Venues, Titel-Keywords und Mit-Autoren. Gleichstände werden
// lexikographisch nach Label aufgelöst.
func ComputeSignals(pubs []models.Publication, coauthors map[string][]string, topN int) models.Signals {
	sig := models.Signals{Count: len(pubs)}
	if len(pubs) == 0 {
		return sig
	}

	years := map[int]int{}
	venues := newCounter()
	keywords := newCounter()
	authors := newCounter()

	for _, pub := range pubs {
		if pub.Year > 0 {
			years[pub.Year]++
			if sig.MinYear == 0 || pub.Year < sig.MinYear {
				sig.MinYear = pub.Year
			}
			if pub.Year > sig.MaxYear {
				sig.MaxYear = pub.Year
			}
		}

		if pub.Journal != "" {
			venues.add(groupKey(pub.Journal), pub.Journal)
		}

		for _, token := range titleKeywords(pub.Title) {
			keywords.add(token, token)
		}

		for _, name := range coauthors[pub.PMID] {
			if key := groupKey(name); key != "" {
				authors.add(key, name)
			}
		}
	}

	if len(years) > 0 {
		sig.Years = years
	}
	sig.Venues = venues.top(topN)
	sig.Keywords = keywords.top(topN)
	sig.Coauthors = authors.top(topN)
	return sig
}

// titleKeywords zerlegt einen Titel in Keyword-Tokens: Kleinbuchstaben,
// Nicht-Alphanumerika werden zu Leerzeichen, Tokens unter drei Zeichen
// oder aus der Stopword-Liste fallen raus.
func titleKeywords(title string) []string {
	mapped := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, strings.ToLower(title))

	var tokens []string
	for _, token := range strings.Fields(mapped) {
		if len(token) < 3 || stopwords[token] {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// groupKey normalisiert ein Label für die Gruppierung (Kleinbuchstaben,
// ohne Interpunktion); das Original bleibt als Anzeige-Label erhalten.
func groupKey(label string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(label), "")
}

// counter zählt Häufigkeiten pro Gruppierungs-Schlüssel und merkt sich
// das zuerst gesehene Original-Label.
type counter struct {
	counts map[string]int
	labels map[string]string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}, labels: map[string]string{}}
}

func (c *counter) add(key, label string) {
	if key == "" {
		return
	}
	if _, ok := c.labels[key]; !ok {
		c.labels[key] = label
	}
	c.counts[key]++
}

// top liefert die n häufigsten Einträge; Count absteigend, Label
// aufsteigend bei Gleichstand.
func (c *counter) top(n int) []models.RankedItem {
	if len(c.counts) == 0 {
		return nil
	}
	items := make([]models.RankedItem, 0, len(c.counts))
	for key, count := range c.counts {
		items = append(items, models.RankedItem{Label: c.labels[key], Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Label < items[j].Label
	})
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items
}
