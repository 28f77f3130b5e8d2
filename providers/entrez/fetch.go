package entrez

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pubtrack/config"
	"pubtrack/providers"
)

// fetchChunkSize ist das Batch-Limit von EFetch pro Anfrage.
const fetchChunkSize = 100

// Fetcher kapselt die Interaktion mit ESearch und EFetch.
type Fetcher struct {
	Config *config.Config
	Client *providers.Client
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des Entrez-Fetchers.
func NewFetcher(cfg *config.Config, client *providers.Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Client: client, Logger: logger}
}

// SearchIDs führt eine ESearch-Abfrage durch und gibt alle PMIDs zurück.
// Die Ergebnisse werden seitenweise (retstart/retmax) eingesammelt; das
// Ranking des Endpunkts ist für uns irrelevant, wir brauchen nur Recall.
func (f *Fetcher) SearchIDs(ctx context.Context, term string) ([]string, error) {
	log := f.Logger.With(zap.String("term", term))
	log.Info("Starting Entrez ESearch")

	retMax := f.Config.EntrezRetMax
	if retMax <= 0 {
		retMax = 200
	}

	var allIDs []string
	for offset := 0; ; offset += retMax {
		params := f.baseParams()
		params.Set("db", "pubmed")
		params.Set("term", term)
		params.Set("retmode", "json")
		params.Set("retmax", fmt.Sprintf("%d", retMax))
		params.Set("retstart", fmt.Sprintf("%d", offset))

		var resp ESearchResponse
		if err := f.Client.GetJSON(ctx, f.Config.EntrezBaseURL+"/esearch.fcgi", params, &resp); err != nil {
			return nil, fmt.Errorf("esearch: %w", err)
		}

		ids := resp.ESearchResult.IdList
		if len(ids) == 0 {
			break
		}
		allIDs = append(allIDs, ids...)
		log.Debug("Received ID page from ESearch", zap.Int("count", len(ids)), zap.Int("offset", offset))

		if len(ids) < retMax {
			break
		}
	}

	log.Info("Entrez ESearch finished", zap.Int("total_ids", len(allIDs)))
	return allIDs, nil
}

// FetchArticles holt die vollständigen Artikel-Details (Autorenliste,
// Affiliationen, Datum) für die gegebenen PMIDs, in Chunks von 100.
func (f *Fetcher) FetchArticles(ctx context.Context, pmids []string) ([]Article, error) {
	var articles []Article
	for start := 0; start < len(pmids); start += fetchChunkSize {
		end := start + fetchChunkSize
		if end > len(pmids) {
			end = len(pmids)
		}
		chunk := pmids[start:end]

		params := f.baseParams()
		params.Set("db", "pubmed")
		params.Set("id", strings.Join(chunk, ","))
		params.Set("retmode", "xml")

		var set PubmedArticleSet
		if err := f.Client.GetXML(ctx, f.Config.EntrezBaseURL+"/efetch.fcgi", params, &set); err != nil {
			return nil, fmt.Errorf("efetch for %d ids: %w", len(chunk), err)
		}

		for i := range set.PubmedArticle {
			articles = append(articles, mapArticle(&set.PubmedArticle[i]))
		}
	}

	f.Logger.Debug("Fetched article details", zap.Int("requested", len(pmids)), zap.Int("received", len(articles)))
	return articles, nil
}

// baseParams setzt die von der Usage-Policy verlangten Parameter.
func (f *Fetcher) baseParams() url.Values {
	params := url.Values{}
	if f.Config.EntrezAPIKey != "" {
		params.Set("api_key", f.Config.EntrezAPIKey)
	}
	if f.Config.EntrezEmail != "" {
		params.Set("email", f.Config.EntrezEmail)
	}
	if f.Config.EntrezTool != "" {
		params.Set("tool", f.Config.EntrezTool)
	}
	return params
}

// mapArticle wandelt ein XML-Article-Objekt in die normalisierte Form um.
func mapArticle(article *PubmedArticle) Article {
	a := Article{
		PMID:    article.MedlineCitation.PMID,
		Title:   article.MedlineCitation.Article.Title,
		Journal: article.MedlineCitation.Article.Journal.Title,
		URL:     fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", article.MedlineCitation.PMID),
	}

	for _, id := range article.MedlineCitation.Article.ELocationID {
		if id.IDType == "doi" && id.ValidYN == "Y" {
			a.DOI = strings.TrimSpace(id.Value)
			break
		}
	}

	for _, author := range article.MedlineCitation.Article.Authors {
		entry := Author{
			LastName: author.LastName,
			ForeName: author.ForeName,
			Initials: author.Initials,
		}
		for _, id := range author.Identifiers {
			if strings.EqualFold(id.Source, "ORCID") {
				entry.ORCID = strings.TrimSpace(id.Value)
				break
			}
		}
		for _, aff := range author.AffiliationInfo {
			if s := strings.TrimSpace(aff.Affiliation); s != "" {
				entry.Affiliations = append(entry.Affiliations, s)
			}
		}
		a.Authors = append(a.Authors, entry)
	}

	// Bestes verfügbares Publikationsdatum: ArticleDate vor Journal-PubDate.
	if t := parseDate(article.MedlineCitation.Article.ArticleDate.Year,
		article.MedlineCitation.Article.ArticleDate.Month,
		article.MedlineCitation.Article.ArticleDate.Day); t != nil {
		a.Date = t
	} else if t := parseDate(article.MedlineCitation.Article.Journal.PubDate.Year,
		article.MedlineCitation.Article.Journal.PubDate.Month,
		article.MedlineCitation.Article.Journal.PubDate.Day); t != nil {
		a.Date = t
	}

	return a
}

// parseDate baut aus Jahr/Monat/Tag-Strings ein Datum. Monate kommen
// wahlweise als "Jan" oder numerisch; fehlende Teile fallen auf 01 zurück.
func parseDate(year, month, day string) *time.Time {
	if year == "" {
		return nil
	}
	m := "01"
	if month != "" {
		if parsed, err := time.Parse("Jan", month); err == nil {
			m = fmt.Sprintf("%02d", parsed.Month())
		} else if parsed, err := time.Parse("1", month); err == nil {
			m = fmt.Sprintf("%02d", parsed.Month())
		}
	}
	d := "01"
	if day != "" {
		d = day
		if len(d) == 1 {
			d = "0" + d
		}
	}
	t, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", year, m, d))
	if err != nil {
		return nil
	}
	return &t
}
