package ir

// Version constants for persisted records.
const (
	// IRVersion is the schema version of persisted run records.
	IRVersion = "1"

	// EngineVersion is the eqsat engine version.
	EngineVersion = "0.1.0"
)
