package lakeq

// Capabilities defines which JSON features are supported by each dialect
var Capabilities = map[Dialect]map[Feature]bool{
	DialectPostgres: {
		FeatureJSONB:           true,
		FeatureJSONPathQuery:   true,
		FeatureJSONTable:       false,
		FeatureByteCollation:   true,
		FeatureCastNumericText: true,
	},
	DialectMySQL: {
		FeatureJSONB:           false,
		FeatureJSONPathQuery:   true,
		FeatureJSONTable:       true,
		FeatureByteCollation:   true,
		FeatureCastNumericText: true,
	},
	DialectSQLite: {
		FeatureJSONB:           false,
		FeatureJSONPathQuery:   false,
		FeatureJSONTable:       true,
		FeatureByteCollation:   false,
		FeatureCastNumericText: false,
	},
}

// HasFeature reports whether the dialect supports the given feature.
func HasFeature(d Dialect, f Feature) bool {
	caps, ok := Capabilities[d.Normalize()]
	if !ok {
		return false
	}

	return caps[f]
}
