package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"reportbot/internal/llm"
	"reportbot/internal/models"
	"reportbot/internal/repository"
)

// TableSchema describes one introspected table.
type TableSchema struct {
	TableName   string       `json:"table_name"`
	Columns     []ColumnInfo `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type ForeignKey struct {
	ConstrainedColumns []string `json:"constrained_columns"`
	ReferredTable      string   `json:"referred_table"`
	ReferredColumns    []string `json:"referred_columns"`
}

// Extractor introspects the live database schema and maintains the
// embedded document set used for retrieval.
type Extractor struct {
	db       *gorm.DB
	repo     *repository.SchemaRepository
	embedder llm.Embedder
	logger   *zap.Logger
}

func NewExtractor(db *gorm.DB, repo *repository.SchemaRepository, embedder llm.Embedder, logger *zap.Logger) *Extractor {
	return &Extractor{db: db, repo: repo, embedder: embedder, logger: logger}
}

// Rebuild recomputes every schema document from live introspection and
// atomically replaces the stored set. Returns the number of documents.
func (e *Extractor) Rebuild(ctx context.Context) (int, error) {
	schemas, err := e.introspect()
	if err != nil {
		return 0, fmt.Errorf("schema introspection failed: %w", err)
	}

	docs := make([]models.SchemaEmbedding, 0, len(schemas))
	for _, ts := range schemas {
		content := renderDocument(ts)

		vector, err := e.embedder.Embed(ctx, content)
		if err != nil {
			return 0, fmt.Errorf("embedding table %s failed: %w", ts.TableName, err)
		}

		embeddingJSON, _ := json.Marshal(vector)
		metadataJSON, _ := json.Marshal(ts)
		docs = append(docs, models.SchemaEmbedding{
			Table:     ts.TableName,
			Content:   content,
			Embedding: string(embeddingJSON),
			Metadata:  string(metadataJSON),
		})
	}

	if err := e.repo.ReplaceAll(docs); err != nil {
		return 0, fmt.Errorf("storing schema documents failed: %w", err)
	}

	e.logger.Info("Schema index rebuilt", zap.Int("tables", len(docs)))
	return len(docs), nil
}

func (e *Extractor) introspect() ([]TableSchema, error) {
	var tables []string
	err := e.db.Raw(
		"SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME",
	).Scan(&tables).Error
	if err != nil {
		return nil, err
	}

	schemas := make([]TableSchema, 0, len(tables))
	for _, table := range tables {
		ts, err := e.introspectTable(table)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, ts)
	}
	return schemas, nil
}

func (e *Extractor) introspectTable(table string) (TableSchema, error) {
	ts := TableSchema{TableName: table}

	var cols []struct {
		ColumnName string
		ColumnType string
		IsNullable string
		ColumnKey  string
	}
	err := e.db.Raw(
		"SELECT COLUMN_NAME AS column_name, COLUMN_TYPE AS column_type, IS_NULLABLE AS is_nullable, COLUMN_KEY AS column_key "+
			"FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
		table,
	).Scan(&cols).Error
	if err != nil {
		return ts, err
	}

	for _, col := range cols {
		ts.Columns = append(ts.Columns, ColumnInfo{
			Name:     col.ColumnName,
			Type:     col.ColumnType,
			Nullable: strings.EqualFold(col.IsNullable, "YES"),
		})
		if col.ColumnKey == "PRI" {
			ts.PrimaryKey = append(ts.PrimaryKey, col.ColumnName)
		}
	}

	var fks []struct {
		ColumnName           string
		ReferencedTableName  string
		ReferencedColumnName string
	}
	err = e.db.Raw(
		"SELECT COLUMN_NAME AS column_name, REFERENCED_TABLE_NAME AS referenced_table_name, REFERENCED_COLUMN_NAME AS referenced_column_name "+
			"FROM information_schema.KEY_COLUMN_USAGE "+
			"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL "+
			"ORDER BY ORDINAL_POSITION",
		table,
	).Scan(&fks).Error
	if err != nil {
		return ts, err
	}

	for _, fk := range fks {
		ts.ForeignKeys = append(ts.ForeignKeys, ForeignKey{
			ConstrainedColumns: []string{fk.ColumnName},
			ReferredTable:      fk.ReferencedTableName,
			ReferredColumns:    []string{fk.ReferencedColumnName},
		})
	}

	return ts, nil
}

// renderDocument turns an introspected table into the text document fed to
// the embedding model.
func renderDocument(ts TableSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n\n", ts.TableName)
	b.WriteString("Columns:\n")
	for _, col := range ts.Columns {
		nullable := "NOT NULL"
		if col.Nullable {
			nullable = "NULL"
		}
		fmt.Fprintf(&b, "- %s (%s) %s\n", col.Name, col.Type, nullable)
	}

	if len(ts.PrimaryKey) > 0 {
		fmt.Fprintf(&b, "\nPrimary Key: %s\n", strings.Join(ts.PrimaryKey, ", "))
	}

	if len(ts.ForeignKeys) > 0 {
		b.WriteString("\nForeign Keys:\n")
		for _, fk := range ts.ForeignKeys {
			fmt.Fprintf(&b, "- %s -> %s(%s)\n",
				strings.Join(fk.ConstrainedColumns, ", "),
				fk.ReferredTable,
				strings.Join(fk.ReferredColumns, ", "))
		}
	}

	return b.String()
}
