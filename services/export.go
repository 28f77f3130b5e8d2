package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pubtrack/models"
)

// WriteDataset schreibt das Ausgabedokument atomar: erst in eine
// Temp-Datei im Zielverzeichnis, dann Rename. Leser sehen nie einen
// halb geschriebenen Stand. Gibt die serialisierten Bytes zurück
// (für den optionalen S3-Upload).
func WriteDataset(path string, ds *models.Dataset) ([]byte, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding dataset: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return data, nil
}
