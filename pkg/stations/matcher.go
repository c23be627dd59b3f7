package stations

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/jsonutil"
)

const (
	// DefaultSimilarityThreshold is the 0-100 score a keyword must reach
	// against a station's city name or station name to count as a match.
	DefaultSimilarityThreshold = 80

	// DefaultMaxResults caps the number of formatted stations returned, to
	// bound prompt context size.
	DefaultMaxResults = 20
)

// Matcher selects stations plausibly relevant to a question by fuzzy-scoring
// extracted keywords against the reference set. The reference set is shared
// read-only; Match is safe for concurrent callers.
type Matcher struct {
	records    []Record
	threshold  int
	maxResults int
	logger     *zap.Logger
}

// NewMatcher creates a matcher over the loaded station set. Non-positive
// threshold or maxResults select the defaults.
func NewMatcher(records []Record, threshold, maxResults int, logger *zap.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Matcher{
		records:    records,
		threshold:  threshold,
		maxResults: maxResults,
		logger:     logger.Named("stations"),
	}
}

// Match returns the stations whose city name (whole-string similarity) or
// station name (substring-tolerant similarity) reaches the threshold for at
// least one keyword. Selection order is the reference-set iteration order;
// the first record wins per unique code, and records without a unique code
// are skipped.
func (m *Matcher) Match(keywords []string) []Record {
	var matched []Record
	seen := make(map[string]bool)

	for _, station := range m.records {
		if station.UniqueCode == "" || seen[station.UniqueCode] {
			continue
		}
		if station.Name == "" && station.CityName == "" {
			continue
		}

		bestCity := 0
		bestStation := 0
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if station.CityName != "" {
				if s := Ratio(kw, station.CityName); s > bestCity {
					bestCity = s
				}
			}
			if station.Name != "" {
				if s := PartialRatio(kw, station.Name); s > bestStation {
					bestStation = s
				}
			}
		}

		if bestCity >= m.threshold || bestStation >= m.threshold {
			matched = append(matched, station)
			seen[station.UniqueCode] = true
		}
	}

	return matched
}

// ContextFor formats the matched stations as a prompt context block. It
// always returns a usable string: an explanatory placeholder when the
// reference set is empty, when no searchable keywords were extracted, or
// when nothing matched.
func (m *Matcher) ContextFor(keywords []string) string {
	if len(m.records) == 0 {
		return "No station information is available."
	}

	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	if len(cleaned) == 0 {
		return "No searchable station or city terms were identified in the question."
	}

	matched := m.Match(cleaned)
	if len(matched) == 0 {
		return fmt.Sprintf("No stations matched the keywords '%s' at similarity threshold %d.",
			strings.Join(cleaned, ", "), m.threshold)
	}

	m.logger.Debug("fuzzy station match",
		zap.Strings("keywords", cleaned),
		zap.Int("matched", len(matched)))

	parts := make([]string, 0, len(matched))
	for _, station := range matched {
		if s := formatStation(station); s != "" {
			parts = append(parts, s)
		}
		if len(parts) == m.maxResults {
			break
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("No stations matched the keywords '%s' at similarity threshold %d.",
			strings.Join(cleaned, ", "), m.threshold)
	}

	return strings.Join(parts, "\n---\n")
}

// formatStation renders one station for the prompt. A station without a
// display name is unusable and renders empty.
func formatStation(s Record) string {
	if s.Name == "" {
		return ""
	}

	var details []string
	if s.UniqueCode != "" {
		details = append(details, fmt.Sprintf("unique code '%s'", s.UniqueCode))
	}
	lon := jsonutil.FlexibleStringValue(s.Longitude)
	lat := jsonutil.FlexibleStringValue(s.Latitude)
	if lon != "" && lat != "" {
		details = append(details, fmt.Sprintf("coordinates longitude %s, latitude %s", lon, lat))
	}
	if s.CityName != "" {
		details = append(details, fmt.Sprintf("city '%s'", s.CityName))
	}
	if typeID := jsonutil.FlexibleStringValue(s.StationTypeID); typeID != "" {
		details = append(details, fmt.Sprintf("station type ID %s", typeID))
	}
	if len(details) == 0 {
		return ""
	}

	return fmt.Sprintf("Station '%s': %s.", s.Name, strings.Join(details, ", "))
}
