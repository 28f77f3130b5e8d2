package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pubtrack/config"
	"pubtrack/models"
	"pubtrack/providers/entrez"
	"pubtrack/store"
)

// PublicationSource ist die Publikations-Provider-Seite der Pipeline
// (ESearch + EFetch), als Interface für die Testbarkeit des Drivers.
type PublicationSource interface {
	SearchIDs(ctx context.Context, term string) ([]string, error)
	FetchArticles(ctx context.Context, pmids []string) ([]entrez.Article, error)
}

// AwardSource ist die Funding-Award-Seite (NIH RePORTER).
type AwardSource interface {
	SearchAwards(ctx context.Context, fac *models.Faculty, fiscalYears []int) ([]models.FacultyGrant, error)
}

// RunResult fasst einen Pipeline-Durchlauf zusammen.
type RunResult struct {
	Dataset *models.Dataset
	Failed  int
}

// Harvester sequenziert die Pipeline pro Faculty-Mitglied: Suche,
// Auflösung, Persistenz, Aggregation. Strikt sequentiell über die
// Faculty-Liste, mit fester Pause zwischen Provider-Anfragen.
type Harvester struct {
	Config   *config.Config
	Store    *store.Store
	Pubs     PublicationSource
	Awards   AwardSource
	Resolver *Resolver
	Logger   *zap.Logger
	// now und sleep sind in Tests austauschbar.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewHarvester erstellt den Pipeline-Driver.
func NewHarvester(cfg *config.Config, st *store.Store, pubs PublicationSource, awards AwardSource, logger *zap.Logger) *Harvester {
	return &Harvester{
		Config:   cfg,
		Store:    st,
		Pubs:     pubs,
		Awards:   awards,
		Resolver: NewResolver(cfg, logger),
		Logger:   logger,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Run verarbeitet alle Faculty-Mitglieder nacheinander. Ein fehlgeschlagenes
// Mitglied bricht den Lauf nicht ab: es bekommt einen leeren Eintrag, wird
// geloggt und gezählt.
func (h *Harvester) Run(ctx context.Context, faculty []*models.Faculty) (*RunResult, error) {
	started := h.now().UTC()
	dataset := &models.Dataset{
		Updated: started.Format(time.RFC3339),
		Source:  "pubmed",
	}

	summary := map[string]int{}
	failed := 0
	for i, fac := range faculty {
		log := h.Logger.With(zap.String("faculty_id", fac.ID))
		entry, err := h.harvestOne(ctx, fac)
		if err != nil {
			log.Error("Harvest failed for faculty member, continuing with next", zap.Error(err))
			failed++
			entry = models.FacultyEntry{
				ID:           fac.ID,
				Name:         fac.DisplayName,
				Department:   fac.Department,
				ORCID:        fac.ORCID,
				Programs:     fac.Programs,
				Publications: []models.PublicationEntry{},
			}
		}
		summary[fac.ID] = len(entry.Publications)
		dataset.Faculty = append(dataset.Faculty, entry)

		if i < len(faculty)-1 {
			h.sleep(h.Config.RequestPause)
		}
	}

	run := &models.HarvestRun{
		StartedAt:  started,
		FinishedAt: h.now().UTC(),
		Faculty:    len(faculty),
		Failed:     failed,
	}
	if b, err := json.Marshal(summary); err == nil {
		run.Summary = b
	}
	if err := h.Store.RecordRun(run); err != nil {
		h.Logger.Warn("Failed to record harvest run", zap.Error(err))
	}

	h.Logger.Info("Harvest run finished",
		zap.Int("faculty", len(faculty)),
		zap.Int("failed", failed))
	return &RunResult{Dataset: dataset, Failed: failed}, nil
}

// harvestOne führt den kompletten Zyklus für ein Faculty-Mitglied aus.
func (h *Harvester) harvestOne(ctx context.Context, fac *models.Faculty) (models.FacultyEntry, error) {
	log := h.Logger.With(zap.String("faculty_id", fac.ID))
	now := h.now().UTC()
	window := ResolveWindow(h.Config, fac, now)
	term := BuildTerm(fac, window, h.Config.MatchInitials)

	candidates, err := h.Pubs.SearchIDs(ctx, term)
	if err != nil {
		return models.FacultyEntry{}, fmt.Errorf("search: %w", err)
	}

	verdicts, err := h.Store.VerdictsFor(fac.ID)
	if err != nil {
		return models.FacultyEntry{}, fmt.Errorf("loading verdicts: %w", err)
	}

	// Kuratierte True Positives, die die automatische Suche nicht mehr
	// liefert, bekommen einen eigenen Metadaten-Fetch, damit die Ausgabe
	// vollständig bleibt.
	inBatch := map[string]bool{}
	for _, pmid := range candidates {
		inBatch[pmid] = true
	}
	fetchList := append([]string{}, candidates...)
	for pmid, verdict := range verdicts {
		if verdict == models.VerdictTruePositive && !inBatch[pmid] {
			fetchList = append(fetchList, pmid)
		}
	}

	h.sleep(h.Config.RequestPause)
	articles, err := h.Pubs.FetchArticles(ctx, fetchList)
	if err != nil {
		return models.FacultyEntry{}, fmt.Errorf("fetch details: %w", err)
	}

	res := h.Resolver.Resolve(fac, articles)
	log.Info("Resolved candidate batch",
		zap.Int("candidates", len(fetchList)),
		zap.Int("matched", len(res.Matched)),
		zap.Int("accepted", len(res.Accepted)),
		zap.Int("missing_affiliation", len(res.MissingAffiliation)))

	// Persistenz: automatisch akzeptierte Records (im Datumsfenster) und
	// per Kuration erzwungene. False-Positive-Urteile filtern erst beim
	// Lesen, die historischen Zeilen bleiben inspizierbar.
	for i := range articles {
		article := &articles[i]
		pmid := article.PMID

		autoAccepted := res.Accepted[pmid] && dateWithin(res.Dates[pmid], window)
		forced := verdicts[pmid] == models.VerdictTruePositive
		if !autoAccepted && !forced {
			continue
		}

		if err := h.persistArticle(fac, article, res); err != nil {
			return models.FacultyEntry{}, fmt.Errorf("persisting %s: %w", pmid, err)
		}
	}

	entry, err := h.buildEntry(fac, res)
	if err != nil {
		return models.FacultyEntry{}, err
	}

	if h.Config.GrantsEnabled && h.Awards != nil {
		grants, err := h.fetchGrants(ctx, fac, window)
		if err != nil {
			// Awards sind ein Nebenpfad; ein Fehler hier soll die
			// Publikationsseite nicht verwerfen.
			log.Warn("Funding award fetch failed", zap.Error(err))
		} else {
			entry.Grants = grants
		}
	}

	return entry, nil
}

// persistArticle schreibt Publikation, Verknüpfung und Mit-Autoren.
func (h *Harvester) persistArticle(fac *models.Faculty, article *entrez.Article, res Resolution) error {
	pub := models.Publication{
		PMID:    article.PMID,
		Title:   article.Title,
		Journal: article.Journal,
		DOI:     article.DOI,
		URL:     article.URL,
	}
	if article.Date != nil {
		pub.Year = article.Date.Year()
	}
	if err := h.Store.UpsertPublication(&pub); err != nil {
		return err
	}
	if err := h.Store.UpsertAssociation(fac.ID, article.PMID, "pubmed", h.now().UTC()); err != nil {
		return err
	}

	coauthors, ok := res.Coauthors[article.PMID]
	if !ok {
		// Kuratiert erzwungener Record ohne Autoren-Match: alle Autoren
		// gelten als Mit-Autoren.
		for _, author := range article.Authors {
			if name := displayName(author); name != "" {
				coauthors = append(coauthors, name)
			}
		}
	}
	return h.Store.ReplaceCoauthors(fac.ID, article.PMID, coauthors)
}

// buildEntry liest den aktuell akzeptierten Bestand aus dem Store und
// berechnet beide Signal-Profile.
func (h *Harvester) buildEntry(fac *models.Faculty, res Resolution) (models.FacultyEntry, error) {
	accepted, err := h.Store.AcceptedPublications(fac.ID)
	if err != nil {
		return models.FacultyEntry{}, fmt.Errorf("reading accepted set: %w", err)
	}
	rejected, err := h.Store.RejectedPublications(fac.ID)
	if err != nil {
		return models.FacultyEntry{}, fmt.Errorf("reading rejected set: %w", err)
	}
	coauthors, err := h.Store.CoauthorsFor(fac.ID)
	if err != nil {
		return models.FacultyEntry{}, fmt.Errorf("reading coauthors: %w", err)
	}

	entry := models.FacultyEntry{
		ID:           fac.ID,
		Name:         fac.DisplayName,
		Department:   fac.Department,
		ORCID:        fac.ORCID,
		Programs:     fac.Programs,
		Publications: make([]models.PublicationEntry, 0, len(accepted)),
		Signals: models.SignalPair{
			Positive: ComputeSignals(accepted, coauthors, h.Config.TopN),
			Negative: ComputeSignals(rejected, coauthors, h.Config.TopN),
		},
	}

	counts := models.AuthorCounts{}
	haveCounts := false
	for _, pub := range accepted {
		pe := models.PublicationEntry{
			ID:      pub.PMID,
			Title:   pub.Title,
			Journal: pub.Journal,
			Year:    pub.Year,
			DOI:     pub.DOI,
			URL:     pub.URL,
		}
		if authorship, ok := res.Authorship[pub.PMID]; ok {
			a := authorship
			pe.Authorship = &a
			haveCounts = true
			switch {
			case a.IsSole():
				counts.Sole++
			case a.IsFirst:
				counts.First++
			case a.IsLast:
				counts.Last++
			default:
				counts.Middle++
			}
		}
		entry.Publications = append(entry.Publications, pe)
	}
	if haveCounts {
		entry.AuthorCounts = &counts
	}

	return entry, nil
}

// fetchGrants holt und persistiert die Funding Awards des Fensters.
func (h *Harvester) fetchGrants(ctx context.Context, fac *models.Faculty, window Window) ([]models.GrantEntry, error) {
	h.sleep(h.Config.RequestPause)

	startYear := window.Start.Year()
	if window.Start.IsZero() {
		startYear = window.End.Year() - 10
	}
	var fiscalYears []int
	for y := startYear; y <= window.End.Year(); y++ {
		fiscalYears = append(fiscalYears, y)
	}

	grants, err := h.Awards.SearchAwards(ctx, fac, fiscalYears)
	if err != nil {
		return nil, err
	}
	if err := h.Store.UpsertGrants(grants); err != nil {
		return nil, err
	}

	stored, err := h.Store.GrantsFor(fac.ID)
	if err != nil {
		return nil, err
	}
	entries := make([]models.GrantEntry, 0, len(stored))
	for _, g := range stored {
		entries = append(entries, models.GrantEntry{
			ProjectNum: g.ProjectNum,
			Title:      g.Title,
			FiscalYear: g.FiscalYear,
			Amount:     g.Amount,
			Agency:     g.Agency,
		})
	}
	return entries, nil
}

// dateWithin prüft das Datumsfenster; ein unbekanntes Datum verwirft den
// Record nicht.
func dateWithin(t *time.Time, w Window) bool {
	if t == nil {
		return true
	}
	return w.Contains(*t)
}
