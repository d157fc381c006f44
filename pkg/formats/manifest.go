package formats

import (
	"encoding/json"
	"fmt"
	"os"
)

// ScanEntry is one record of the ids manifest.
type ScanEntry struct {
	ScanID       string   `json:"scan_id"`
	ViewpointIDs []string `json:"viewpoint_ids"`
}

// Location is a position in scan coordinates.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// StateRecord is one captured camera state as stored in a
// {scan}_{viewpoint}_state.json file, in dataset conventions.
type StateRecord struct {
	ScanID      string   `json:"scanId"`
	ViewpointID string   `json:"viewpointId"`
	Heading     float64  `json:"heading"`
	Elevation   float64  `json:"elevation"`
	ViewIndex   int      `json:"viewIndex"`
	Location    Location `json:"location"`
}

// StateFileName returns the state file name of a viewpoint.
func StateFileName(scanID, viewpointID string) string {
	return fmt.Sprintf("%s_%s_state.json", scanID, viewpointID)
}

// LoadManifest reads the ids manifest.
func LoadManifest(path string) ([]ScanEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []ScanEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// LoadStates reads a viewpoint state file.
func LoadStates(path string) ([]StateRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []StateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}
