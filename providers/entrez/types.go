// Package entrez enthält die Logik für die Interaktion mit den
// NCBI E-Utilities (ESearch/EFetch).
package entrez

import (
	"encoding/xml"
	"time"
)

// ESearchResponse repräsentiert die JSON-Antwort von ESearch für die ID-Suche.
type ESearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IdList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// PubmedArticleSet repräsentiert das gesamte XML-Dokument von EFetch.
type PubmedArticleSet struct {
	XMLName       xml.Name        `xml:"PubmedArticleSet"`
	PubmedArticle []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle repräsentiert einen einzelnen Artikel in der XML-Antwort.
// Anders als bei reinen Metadaten-Abfragen brauchen wir hier die volle
// Autorenliste samt Identifier und Affiliationen.
type PubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title   string `xml:"ArticleTitle"`
			Authors []struct {
				LastName    string `xml:"LastName"`
				ForeName    string `xml:"ForeName"`
				Initials    string `xml:"Initials"`
				Identifiers []struct {
					Source string `xml:"Source,attr"`
					Value  string `xml:",chardata"`
				} `xml:"Identifier"`
				AffiliationInfo []struct {
					Affiliation string `xml:"Affiliation"`
				} `xml:"AffiliationInfo"`
			} `xml:"AuthorList>Author"`
			Journal struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year  string `xml:"Year"`
					Month string `xml:"Month"`
					Day   string `xml:"Day"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			ArticleDate struct {
				Year  string `xml:"Year"`
				Month string `xml:"Month"`
				Day   string `xml:"Day"`
			} `xml:"ArticleDate"`
			ELocationID []struct {
				IDType  string `xml:"EIdType,attr"`
				ValidYN string `xml:"ValidYN,attr"`
				Value   string `xml:",chardata"`
			} `xml:"ELocationID"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

// Author ist ein Eintrag der geordneten Autorenliste eines Artikels,
// auf das reduziert, was der Resolver braucht.
type Author struct {
	LastName     string
	ForeName     string
	Initials     string
	ORCID        string
	Affiliations []string
}

// Article ist die normalisierte Form eines EFetch-Artikels.
type Article struct {
	PMID    string
	Title   string
	Journal string
	DOI     string
	URL     string
	Date    *time.Time
	Authors []Author
}
