package lakeq

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
	DialectMariaDB  Dialect = "mariadb"
)

// Valid reports whether d is one of the supported dialects.
func (d Dialect) Valid() bool {
	switch d {
	case DialectPostgres, DialectMySQL, DialectSQLite, DialectMariaDB:
		return true
	}

	return false
}

// Normalize collapses dialect aliases. MariaDB shares the MySQL SQL
// surface for everything this engine emits.
func (d Dialect) Normalize() Dialect {
	if d == DialectMariaDB {
		return DialectMySQL
	}

	return d
}

// Feature represents DB-specific feature flags
type Feature int

const (
	FeatureJSONB           Feature = iota + 1 // native jsonb column type and operators
	FeatureJSONPathQuery                      // jsonb_path_exists / JSON_SEARCH deep scan
	FeatureJSONTable                          // json_tree / JSON_TABLE expansion
	FeatureByteCollation                      // explicit byte-order collation on text sort keys
	FeatureCastNumericText                    // numeric extraction requires an explicit cast
	// Add more features as needed
)
