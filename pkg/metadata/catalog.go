// Package metadata holds the business-level description of the monitoring
// database: what each table means and what each column stands for. The
// catalog feeds entity extraction prompts and the DDL commenting done during
// training.
package metadata

import (
	"fmt"
	"sort"
	"strings"
)

// TableDoc describes one table in business terms.
type TableDoc struct {
	Name         string
	BusinessName string
	Description  string
	Relations    string
}

// FieldDoc maps a column name to its business meaning. Order matters: prompt
// construction takes a bounded prefix of the field list.
type FieldDoc struct {
	Column      string
	Description string
}

// Catalog is the full business metadata set. It is built once at startup and
// read-only afterwards.
type Catalog struct {
	Tables []TableDoc
	Fields []FieldDoc
}

// DefaultCatalog returns the built-in description of the air quality
// monitoring schema.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Tables: []TableDoc{
			{
				Name:         "bsd_station",
				BusinessName: "station registry",
				Description:  "Base information for each monitoring station: name, codes, coordinates, address, status.",
				Relations:    "Joins bsd_region via areacode.",
			},
			{
				Name:         "bsd_region",
				BusinessName: "region registry",
				Description:  "Administrative region hierarchy: province, city, district.",
				Relations:    "Self-joins via parentid for hierarchy queries.",
			},
			{
				Name:         "dat_station_day",
				BusinessName: "station daily averages",
				Description:  "Daily average pollutant concentrations and AQI figures per station.",
				Relations:    "Joins bsd_station via code = stationcode or uniquecode.",
			},
			{
				Name:         "dat_city_day",
				BusinessName: "city daily averages",
				Description:  "Daily average pollutant concentrations and AQI per city.",
				Relations:    "Joins bsd_region via code = areacode.",
			},
			{
				Name:         "dat_station_hour",
				BusinessName: "station hourly readings",
				Description:  "Hourly pollutant concentrations, weather data and AQI per station. Often partitioned by year, e.g. dat_station_hour_2024.",
				Relations:    "Joins bsd_station via code = stationcode or uniquecode.",
			},
			{
				Name:         "dat_city_hour",
				BusinessName: "city hourly readings",
				Description:  "Hourly pollutant concentrations per city.",
				Relations:    "Joins bsd_region via code = areacode.",
			},
		},
		Fields: []FieldDoc{
			{Column: "id", Description: "auto-increment primary key"},
			{Column: "name", Description: "name (station, district or city)"},
			{Column: "code", Description: "code (station, district or city)"},
			{Column: "areacode", Description: "region code"},
			{Column: "areaname", Description: "region name"},
			{Column: "longitude", Description: "longitude"},
			{Column: "latitude", Description: "latitude"},
			{Column: "timepoint", Description: "observation timestamp"},
			{Column: "datatype", Description: "data type (0=raw live, 1=audited live, 2=raw standard, 3=audited standard)"},
			{Column: "orderid", Description: "sort order"},
			{Column: "createtime", Description: "creation time"},
			{Column: "createuser", Description: "creating user"},
			{Column: "updatetime", Description: "last update time"},
			{Column: "updateuser", Description: "updating user"},
			{Column: "positionname", Description: "station name"},
			{Column: "uniquecode", Description: "station unique code"},
			{Column: "stationcode", Description: "station code"},
			{Column: "stationtypeid", Description: "station type identifier"},
			{Column: "address", Description: "station address"},
			{Column: "pm25", Description: "PM2.5 concentration"},
			{Column: "pm10", Description: "PM10 concentration"},
			{Column: "so2", Description: "SO2 concentration"},
			{Column: "no2", Description: "NO2 concentration"},
			{Column: "co", Description: "CO concentration"},
			{Column: "o3", Description: "ozone concentration"},
			{Column: "aqi", Description: "air quality index"},
			{Column: "primarypollutant", Description: "primary pollutant"},
			{Column: "aqitype", Description: "AQI level label"},
			{Column: "temperature", Description: "temperature"},
			{Column: "humidity", Description: "relative humidity"},
			{Column: "windspeed", Description: "wind speed"},
			{Column: "winddirection", Description: "wind direction"},
			{Column: "pressure", Description: "air pressure"},
			{Column: "rainfall", Description: "rainfall"},
		},
	}
}

// MergeFields applies configured field overrides on top of the catalog,
// replacing descriptions for known columns and appending unknown ones.
func (c *Catalog) MergeFields(overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	known := make(map[string]int, len(c.Fields))
	for i, f := range c.Fields {
		known[f.Column] = i
	}
	// Deterministic append order for columns not already in the catalog.
	var added []string
	for col, desc := range overrides {
		if i, ok := known[col]; ok {
			c.Fields[i].Description = desc
		} else {
			added = append(added, col)
		}
	}
	sort.Strings(added)
	for _, col := range added {
		c.Fields = append(c.Fields, FieldDoc{Column: col, Description: overrides[col]})
	}
}

// FieldDescription looks up a column's business meaning. Lookup is
// case-insensitive on the column name.
func (c *Catalog) FieldDescription(column string) (string, bool) {
	lower := strings.ToLower(column)
	for _, f := range c.Fields {
		if strings.ToLower(f.Column) == lower {
			return f.Description, true
		}
	}
	return "", false
}

// TableDescription looks up a table's documentation by name.
func (c *Catalog) TableDescription(table string) (TableDoc, bool) {
	for _, t := range c.Tables {
		if t.Name == table {
			return t, true
		}
	}
	return TableDoc{}, false
}

// PromptTableInfo renders the table docs as a bulleted block for prompts.
func (c *Catalog) PromptTableInfo() string {
	if len(c.Tables) == 0 {
		return "none"
	}
	var b strings.Builder
	for i, t := range c.Tables {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- **%s (%s)**: %s", t.Name, t.BusinessName, t.Description)
	}
	return b.String()
}

// PromptFieldInfo renders at most limit field docs as a bulleted block.
func (c *Catalog) PromptFieldInfo(limit int) string {
	if len(c.Fields) == 0 {
		return "none"
	}
	fields := c.Fields
	if limit > 0 && len(fields) > limit {
		fields = fields[:limit]
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- **%s**: %s", f.Column, f.Description)
	}
	return b.String()
}
