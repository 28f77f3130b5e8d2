// Package reporter holt Funding Awards aus der NIH RePORTER API. Die
// Pipeline hier ist strukturell einfacher als die Publikationsseite: es
// gibt keine Autorenpositions-Auflösung, nur Suche nach PI-Namen.
package reporter

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"pubtrack/config"
	"pubtrack/models"
	"pubtrack/providers"
)

const pageSize = 100

// searchRequest ist der Payload von POST /v2/projects/search.
type searchRequest struct {
	Criteria searchCriteria `json:"criteria"`
	Offset   int            `json:"offset"`
	Limit    int            `json:"limit"`
}

type searchCriteria struct {
	PINames     []piName `json:"pi_names,omitempty"`
	FiscalYears []int    `json:"fiscal_years,omitempty"`
}

type piName struct {
	AnyName string `json:"any_name"`
}

// searchResponse ist die JSON-Antwort der Projektsuche.
type searchResponse struct {
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
	Results []struct {
		ProjectNum   string `json:"project_num"`
		ProjectTitle string `json:"project_title"`
		FiscalYear   int    `json:"fiscal_year"`
		AwardAmount  int64  `json:"award_amount"`
		AgencyIC     struct {
			Name string `json:"name"`
		} `json:"agency_ic_admin"`
	} `json:"results"`
}

// Fetcher kapselt die Interaktion mit NIH RePORTER.
type Fetcher struct {
	Config *config.Config
	Client *providers.Client
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des RePORTER-Fetchers.
func NewFetcher(cfg *config.Config, client *providers.Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Client: client, Logger: logger}
}

// SearchAwards sucht Projekte nach PI-Namensvarianten und Fiscal Years.
// Duplikate über mehrere Namensvarianten werden über die Projektnummer
// zusammengeführt.
func (f *Fetcher) SearchAwards(ctx context.Context, fac *models.Faculty, fiscalYears []int) ([]models.FacultyGrant, error) {
	log := f.Logger.With(zap.String("faculty_id", fac.ID))

	names := make([]piName, 0, len(fac.Variants))
	seen := map[string]bool{}
	for _, v := range fac.Variants {
		name := fmt.Sprintf("%s %s", v.Given, v.Family)
		if v.Given == "" {
			name = v.Family
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, piName{AnyName: name})
	}
	if len(names) == 0 {
		return nil, nil
	}

	byProject := map[string]models.FacultyGrant{}
	for offset := 0; ; offset += pageSize {
		req := searchRequest{
			Criteria: searchCriteria{PINames: names, FiscalYears: fiscalYears},
			Offset:   offset,
			Limit:    pageSize,
		}
		var resp searchResponse
		if err := f.Client.PostJSON(ctx, f.Config.ReporterBaseURL+"/v2/projects/search", req, &resp); err != nil {
			return nil, fmt.Errorf("reporter search: %w", err)
		}

		for _, r := range resp.Results {
			if r.ProjectNum == "" {
				continue
			}
			byProject[r.ProjectNum] = models.FacultyGrant{
				FacultyID:  fac.ID,
				ProjectNum: r.ProjectNum,
				Title:      r.ProjectTitle,
				FiscalYear: r.FiscalYear,
				Amount:     r.AwardAmount,
				Agency:     r.AgencyIC.Name,
			}
		}

		if offset+pageSize >= resp.Meta.Total || len(resp.Results) == 0 {
			break
		}
	}

	grants := make([]models.FacultyGrant, 0, len(byProject))
	for _, g := range byProject {
		grants = append(grants, g)
	}
	// Deterministische Reihenfolge für das Ausgabedokument.
	sort.Slice(grants, func(i, j int) bool { return grants[i].ProjectNum < grants[j].ProjectNum })
	log.Info("RePORTER search finished", zap.Int("awards", len(grants)))
	return grants, nil
}
