package models

// SchemaEmbedding stores one rendered table-schema document with its
// embedding vector. The set is rebuilt wholesale (full delete + reinsert),
// never patched row by row; position preserves insertion order for
// deterministic similarity tie-breaks.
type SchemaEmbedding struct {
	Table     string `gorm:"column:table_name;primaryKey;size:255" json:"table_name"`
	Content   string `gorm:"column:content;type:text" json:"content"`
	Embedding string `gorm:"column:embedding;type:longtext" json:"-"`
	Metadata  string `gorm:"column:schema_metadata;type:text" json:"schema_metadata"`
	Position  int    `gorm:"column:position" json:"-"`
}

func (SchemaEmbedding) TableName() string {
	return "schema_embeddings"
}
