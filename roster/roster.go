// Package roster liest die Faculty-Stammdaten aus einer CSV-Datei ein.
// Eine Zeile entspricht einer Researcher-Programm-Paarung; mehrere Zeilen
// desselben Researchers werden zu einem Faculty-Objekt mit mehreren
// Namensvarianten und Programmen zusammengeführt.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"pubtrack/models"
)

// Spaltenlayout der Roster-Datei.
const (
	colGiven = iota
	colFamily
	colORCID
	colContact
	colDepartment
	colTerms
	colProgram
	colStartDate
	colCount
)

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9]+`)
	// Spitznamen in Klammern, z.B. "Robert (Bob)".
	nickname = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)\s*$`)
)

// Load liest die Roster-Datei und gibt die Faculty-Liste in
// Dateireihenfolge (erste Sichtung) zurück.
func Load(path string) ([]*models.Faculty, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse liest Roster-Zeilen aus r. Zeilen ohne Namensfelder werden
// übersprungen. Die erste Zeile wird als Header behandelt, wenn sie wie
// einer aussieht.
func Parse(r io.Reader) ([]*models.Faculty, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var order []string
	byID := map[string]*models.Faculty{}

	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading roster: %w", err)
		}
		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		if len(row) < colCount {
			padded := make([]string, colCount)
			copy(padded, row)
			row = padded
		}

		given := strings.TrimSpace(row[colGiven])
		family := strings.TrimSpace(row[colFamily])
		if given == "" && family == "" {
			continue
		}

		orcid := strings.TrimSpace(row[colORCID])
		contact := strings.TrimSpace(row[colContact])
		id := slug(orcid)
		if id == "" {
			id = slug(family + " " + given + " " + contact)
		}

		fac, ok := byID[id]
		if !ok {
			fac = &models.Faculty{
				ID:          id,
				DisplayName: strings.TrimSpace(given + " " + family),
				ORCID:       orcid,
				Department:  strings.TrimSpace(row[colDepartment]),
			}
			byID[id] = fac
			order = append(order, id)
		}
		if fac.ORCID == "" {
			fac.ORCID = orcid
		}
		if fac.Department == "" {
			fac.Department = strings.TrimSpace(row[colDepartment])
		}

		for _, v := range nameVariants(given, family) {
			addVariant(fac, v)
		}

		for _, term := range strings.Split(row[colTerms], "|") {
			term = strings.TrimSpace(term)
			if term != "" && !contains(fac.AffiliationTerms, term) {
				fac.AffiliationTerms = append(fac.AffiliationTerms, term)
			}
		}

		if program := strings.TrimSpace(row[colProgram]); program != "" && !contains(fac.Programs, program) {
			fac.Programs = append(fac.Programs, program)
		}

		if fac.StartDate == nil {
			if t, err := time.Parse("1/2/2006", strings.TrimSpace(row[colStartDate])); err == nil {
				fac.StartDate = &t
			}
		}
	}

	result := make([]*models.Faculty, 0, len(order))
	for _, id := range order {
		result = append(result, byID[id])
	}
	return result, nil
}

// nameVariants zerlegt einen Vornamen mit optionalem Spitznamen in
// Klammern in mehrere Varianten.
func nameVariants(given, family string) []models.NameVariant {
	if m := nickname.FindStringSubmatch(given); m != nil {
		variants := []models.NameVariant{}
		if base := strings.TrimSpace(m[1]); base != "" {
			variants = append(variants, models.NameVariant{Given: base, Family: family})
		}
		variants = append(variants, models.NameVariant{Given: strings.TrimSpace(m[2]), Family: family})
		return variants
	}
	return []models.NameVariant{{Given: given, Family: family}}
}

func addVariant(fac *models.Faculty, v models.NameVariant) {
	for _, existing := range fac.Variants {
		if existing == v {
			return
		}
	}
	fac.Variants = append(fac.Variants, v)
}

// slug normalisiert einen Rohwert zu einem stabilen internen Schlüssel.
func slug(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// isHeader erkennt die Kopfzeile an den üblichen Spaltennamen.
func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(row[0]))
	return head == "given" || head == "given_name" || head == "first_name"
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
