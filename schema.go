package lakeq

// Names shared between the transpiler, which emits references to
// them, and the store adapter, which creates them. Columns only the
// store touches keep their names in its own statements.
const (
	TableDocuments = "documents"

	ColumnDocID   = "doc_id"
	ColumnDocType = "doc_type"
)

// DocumentsDDL holds the per-dialect CREATE TABLE statement for the
// documents table. Content is jsonb on PostgreSQL, JSON elsewhere;
// byte-order collation on the id and type columns keeps comparisons
// and tiebreak ordering identical across dialects.
var DocumentsDDL = map[Dialect]string{
	DialectPostgres: `CREATE TABLE IF NOT EXISTS documents (
    pk UUID PRIMARY KEY,
    dataset TEXT NOT NULL,
    doc_id TEXT NOT NULL COLLATE "C",
    doc_type TEXT NOT NULL COLLATE "C",
    content JSONB NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    revision TEXT NOT NULL DEFAULT '',
    UNIQUE (dataset, doc_id)
)`,
	DialectMySQL: `CREATE TABLE IF NOT EXISTS documents (
    pk CHAR(36) PRIMARY KEY,
    dataset VARCHAR(128) NOT NULL,
    doc_id VARCHAR(256) COLLATE utf8mb4_bin NOT NULL,
    doc_type VARCHAR(256) COLLATE utf8mb4_bin NOT NULL,
    content JSON NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME(6) NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    revision VARCHAR(64) NOT NULL DEFAULT '',
    UNIQUE KEY uq_dataset_doc (dataset, doc_id)
)`,
	DialectSQLite: `CREATE TABLE IF NOT EXISTS documents (
    pk TEXT PRIMARY KEY,
    dataset TEXT NOT NULL,
    doc_id TEXT NOT NULL,
    doc_type TEXT NOT NULL,
    content TEXT NOT NULL,
    deleted INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    revision TEXT NOT NULL DEFAULT '',
    UNIQUE (dataset, doc_id)
)`,
}

// DocumentsIndexDDL holds secondary index statements applied after the
// table exists. Lookups by type and reference scans dominate reads.
var DocumentsIndexDDL = map[Dialect][]string{
	DialectPostgres: {
		`CREATE INDEX IF NOT EXISTS idx_documents_type ON documents (dataset, doc_type) WHERE NOT deleted`,
		`CREATE INDEX IF NOT EXISTS idx_documents_content ON documents USING GIN (content jsonb_path_ops)`,
	},
	DialectMySQL: {
		`CREATE INDEX idx_documents_type ON documents (dataset, doc_type)`,
	},
	DialectSQLite: {
		`CREATE INDEX IF NOT EXISTS idx_documents_type ON documents (dataset, doc_type)`,
	},
}
