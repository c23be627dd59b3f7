package metadata

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
	"github.com/airsight-ai/airquery-engine/pkg/knowledge"
)

// QueryRunner runs introspection queries against the live database.
type QueryRunner interface {
	RunQuery(ctx context.Context, sql string) (*dbpool.QueryResult, error)
}

// Trainer seeds the knowledge store from the database schema: a field
// glossary document, one commented DDL per table, and one business
// description per documented table.
type Trainer struct {
	runner  QueryRunner
	catalog *Catalog
	store   knowledge.Trainer
	logger  *zap.Logger
}

// NewTrainer creates a trainer over the given database and store.
func NewTrainer(runner QueryRunner, catalog *Catalog, store knowledge.Trainer, logger *zap.Logger) *Trainer {
	return &Trainer{
		runner:  runner,
		catalog: catalog,
		store:   store,
		logger:  logger.Named("trainer"),
	}
}

// Train walks every base table and seeds the store. Individual table
// failures are logged and skipped so one bad table cannot stop training.
func (t *Trainer) Train(ctx context.Context, sqlServer bool) error {
	if err := t.store.AddDocumentation(ctx, t.fieldGlossary()); err != nil {
		return fmt.Errorf("train field glossary: %w", err)
	}

	tables, err := t.listTables(ctx, sqlServer)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	t.logger.Info("training on database schema", zap.Int("tables", len(tables)))

	for _, table := range tables {
		ddl, err := t.buildDDL(ctx, table)
		if err != nil {
			t.logger.Warn("skipping table",
				zap.String("table", table.name),
				zap.Error(err))
			continue
		}
		if err := t.store.AddDDL(ctx, ddl); err != nil {
			return fmt.Errorf("train ddl for %s: %w", table.name, err)
		}

		if doc, ok := t.catalog.TableDescription(metadataKey(table.name)); ok {
			tableDoc := fmt.Sprintf("Table '%s' (business name: %s) is used for: %s Relations: %s",
				table.name, doc.BusinessName, doc.Description, doc.Relations)
			if err := t.store.AddDocumentation(ctx, tableDoc); err != nil {
				return fmt.Errorf("train documentation for %s: %w", table.name, err)
			}
		}
	}
	return nil
}

// AddSQLExample stores one curated question/SQL pair.
func (t *Trainer) AddSQLExample(ctx context.Context, question, sql string) error {
	return t.store.AddQuestionSQL(ctx, question, sql)
}

func (t *Trainer) fieldGlossary() string {
	var b strings.Builder
	b.WriteString("Business meaning of common database fields:\n")
	for _, f := range t.catalog.Fields {
		fmt.Fprintf(&b, "- Column `%s` means '%s'\n", f.Column, f.Description)
	}
	return b.String()
}

type tableRef struct {
	schema string
	name   string
}

func (t *Trainer) listTables(ctx context.Context, sqlServer bool) ([]tableRef, error) {
	query := "SELECT TABLE_SCHEMA, TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE'"
	if !sqlServer {
		query += " AND TABLE_SCHEMA = 'public'"
	}
	result, err := t.runner.RunQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	tables := make([]tableRef, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 2 {
			continue
		}
		tables = append(tables, tableRef{
			schema: fmt.Sprintf("%v", row[0]),
			name:   fmt.Sprintf("%v", row[1]),
		})
	}
	return tables, nil
}

// buildDDL reconstructs a commented CREATE TABLE from the information
// schema, annotating columns the catalog knows about.
func (t *Trainer) buildDDL(ctx context.Context, table tableRef) (string, error) {
	colQuery := fmt.Sprintf(
		"SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH, IS_NULLABLE "+
			"FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = '%s' AND TABLE_SCHEMA = '%s' "+
			"ORDER BY ORDINAL_POSITION", table.name, table.schema)
	result, err := t.runner.RunQuery(ctx, colQuery)
	if err != nil {
		return "", err
	}
	if len(result.Rows) == 0 {
		return "", fmt.Errorf("no columns found")
	}

	var defs []string
	for _, row := range result.Rows {
		if len(row) < 4 {
			continue
		}
		name := fmt.Sprintf("%v", row[0])
		def := fmt.Sprintf("  %s %v", name, row[1])
		if row[2] != nil {
			def += fmt.Sprintf("(%v)", row[2])
		}
		if fmt.Sprintf("%v", row[3]) == "NO" {
			def += " NOT NULL"
		}
		if desc, ok := t.catalog.FieldDescription(name); ok {
			def += " -- " + desc
		}
		defs = append(defs, def)
	}

	pkQuery := fmt.Sprintf(
		"SELECT KCU.COLUMN_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS AS TC "+
			"JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE AS KCU ON TC.CONSTRAINT_NAME = KCU.CONSTRAINT_NAME "+
			"WHERE TC.TABLE_NAME = '%s' AND TC.TABLE_SCHEMA = '%s' AND TC.CONSTRAINT_TYPE = 'PRIMARY KEY' "+
			"ORDER BY KCU.ORDINAL_POSITION", table.name, table.schema)
	if pk, err := t.runner.RunQuery(ctx, pkQuery); err == nil && len(pk.Rows) > 0 {
		cols := make([]string, 0, len(pk.Rows))
		for _, row := range pk.Rows {
			cols = append(cols, fmt.Sprintf("%v", row[0]))
		}
		defs = append(defs, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(cols, ", ")))
	}

	ddl := fmt.Sprintf("CREATE TABLE %s.%s (\n%s\n);", table.schema, table.name, strings.Join(defs, ",\n"))
	return t.ddlHeader(table.name) + ddl, nil
}

// ddlHeader prefixes the DDL with business comments when the table is
// documented.
func (t *Trainer) ddlHeader(tableName string) string {
	doc, ok := t.catalog.TableDescription(metadataKey(tableName))
	if !ok {
		return ""
	}
	return fmt.Sprintf("-- Business name: %s\n-- Purpose: %s\n-- Relations: %s\n",
		doc.BusinessName, doc.Description, doc.Relations)
}

// metadataKey folds year-partitioned hourly tables onto their base entry.
func metadataKey(tableName string) string {
	if strings.HasPrefix(tableName, "dat_station_hour") {
		return "dat_station_hour"
	}
	if strings.HasPrefix(tableName, "dat_city_hour") {
		return "dat_city_hour"
	}
	return tableName
}
