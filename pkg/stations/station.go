// Package stations holds the in-memory monitoring-station reference set and
// the fuzzy matcher that selects stations relevant to a question.
package stations

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Record is one monitoring-station entry. Loaded once from a snapshot file
// and read-only thereafter; identity key is UniqueCode.
type Record struct {
	Name          string          `json:"站点名称"`
	UniqueCode    string          `json:"唯一编码"`
	Longitude     json.RawMessage `json:"经度,omitempty"`
	Latitude      json.RawMessage `json:"纬度,omitempty"`
	CityName      string          `json:"城市名称"`
	StationTypeID json.RawMessage `json:"站点类型ID,omitempty"`
}

// snapshotEnvelope matches exports that wrap the station list in a results key.
type snapshotEnvelope struct {
	Results []Record `json:"results"`
}

// LoadSnapshot reads the station snapshot file. The document is either a
// bare array of station objects or an object with a "results" array.
// A missing file is not fatal: the engine runs without station context.
func LoadSnapshot(path string, logger *zap.Logger) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("station snapshot not found, station context disabled",
				zap.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("read station snapshot: %w", err)
	}

	records, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("parse station snapshot %s: %w", path, err)
	}

	logger.Info("station snapshot loaded",
		zap.String("path", path),
		zap.Int("stations", len(records)))
	return records, nil
}

// ParseSnapshot decodes snapshot bytes in either supported shape.
func ParseSnapshot(data []byte) ([]Record, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode station array: %w", err)
		}
		return records, nil
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode station envelope: %w", err)
	}
	if envelope.Results == nil {
		return nil, fmt.Errorf("station snapshot has neither a bare array nor a results key")
	}
	return envelope.Results, nil
}
