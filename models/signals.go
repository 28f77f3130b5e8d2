package models

// RankedItem ist ein Label mit Häufigkeit, absteigend nach Count sortiert;
// bei Gleichstand entscheidet die lexikographische Ordnung des Labels.
type RankedItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Signals sind abgeleitete Kennzahlen über eine Publikationsmenge eines
// Faculty-Mitglieds. Sie werden pro Lauf neu berechnet und nicht
// persistiert: einmal über die akzeptierte Menge, einmal über die als
// false_positive bestätigte, damit ein Kurator beide Profile nebeneinander
// sieht.
type Signals struct {
	Count     int          `json:"count"`
	MinYear   int          `json:"minYear,omitempty"`
	MaxYear   int          `json:"maxYear,omitempty"`
	Years     map[int]int  `json:"years,omitempty"`
	Venues    []RankedItem `json:"venues,omitempty"`
	Keywords  []RankedItem `json:"keywords,omitempty"`
	Coauthors []RankedItem `json:"coauthors,omitempty"`
}
