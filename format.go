package mojap

import "strings"

// Format names a metadata representation that a converter can produce or consume.
type Format int

// Supported formats
const (
	Unknown Format = iota
	Metadata
	Arrow
	Glue
	ETL
	Parquet
	DDL
)

var formatNames = []string{
	Unknown:  "unknown",
	Metadata: "metadata",
	Arrow:    "arrow",
	Glue:     "glue",
	ETL:      "etl",
	Parquet:  "parquet",
	DDL:      "ddl",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[Unknown]
	}
	return formatNames[f]
}

// ParseFormat parses a format name.  "mojap" and "etl-manager" are accepted
// as aliases.
func ParseFormat(name string) Format {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "mojap":
		return Metadata
	case "etl-manager", "etl_manager":
		return ETL
	}
	for f, n := range formatNames {
		if n == name {
			return Format(f)
		}
	}
	return Unknown
}
