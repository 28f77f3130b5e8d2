package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pubtrack/models"
)

func TestTitleKeywordsStopwordScenario(t *testing.T) {
	// Alle Tokens außer "diabetes" sind Stopwords oder nach der
	// Normalisierung kürzer als drei Zeichen.
	tokens := titleKeywords("Outcomes of Long-Term Follow-Up Studies in Diabetes")
	assert.Equal(t, []string{"diabetes"}, tokens)
}

func TestComputeSignalsYearHistogram(t *testing.T) {
	pubs := []models.Publication{
		{PMID: "1", Year: 2020, Title: "x", Journal: "J1"},
		{PMID: "2", Year: 2020, Title: "x", Journal: "J1"},
		{PMID: "3", Year: 2022, Title: "x", Journal: "J2"},
		{PMID: "4", Title: "x"}, // ohne Jahr
	}

	sig := ComputeSignals(pubs, nil, 10)
	assert.Equal(t, 4, sig.Count)
	assert.Equal(t, 2020, sig.MinYear)
	assert.Equal(t, 2022, sig.MaxYear)
	assert.Equal(t, map[int]int{2020: 2, 2022: 1}, sig.Years)
}

func TestComputeSignalsVenueGroupingKeepsOriginalLabel(t *testing.T) {
	pubs := []models.Publication{
		{PMID: "1", Title: "x", Journal: "J. Clin. Invest."},
		{PMID: "2", Title: "x", Journal: "J Clin Invest"},
		{PMID: "3", Title: "x", Journal: "Nature"},
	}

	sig := ComputeSignals(pubs, nil, 10)
	require.Len(t, sig.Venues, 2)
	// Interpunktions-Varianten gruppieren zusammen; das zuerst gesehene
	// Original bleibt das Anzeige-Label.
	assert.Equal(t, models.RankedItem{Label: "J. Clin. Invest.", Count: 2}, sig.Venues[0])
	assert.Equal(t, models.RankedItem{Label: "Nature", Count: 1}, sig.Venues[1])
}

func TestComputeSignalsTieBreaksLexicographically(t *testing.T) {
	pubs := []models.Publication{
		{PMID: "1", Title: "x", Journal: "Zebra Journal"},
		{PMID: "2", Title: "x", Journal: "Alpha Journal"},
	}

	sig := ComputeSignals(pubs, nil, 10)
	require.Len(t, sig.Venues, 2)
	assert.Equal(t, "Alpha Journal", sig.Venues[0].Label)
	assert.Equal(t, "Zebra Journal", sig.Venues[1].Label)
}

func TestComputeSignalsCoauthorFrequency(t *testing.T) {
	pubs := []models.Publication{
		{PMID: "1", Title: "x"},
		{PMID: "2", Title: "x"},
	}
	coauthors := map[string][]string{
		"1": {"Anna Adams", "Bob Baker"},
		"2": {"Anna Adams"},
	}

	sig := ComputeSignals(pubs, coauthors, 1)
	require.Len(t, sig.Coauthors, 1, "topN must cap the list")
	assert.Equal(t, models.RankedItem{Label: "Anna Adams", Count: 2}, sig.Coauthors[0])
}

func TestComputeSignalsEmptySet(t *testing.T) {
	sig := ComputeSignals(nil, nil, 10)
	assert.Equal(t, 0, sig.Count)
	assert.Nil(t, sig.Years)
	assert.Empty(t, sig.Venues)
}
