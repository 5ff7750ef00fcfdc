package ir

// Version constants for persisted and exported formats.
const (
	// SealVersion identifies the projection and digest rules used by seal.
	SealVersion = "1"

	// BackupVersion is written into every backup envelope.
	BackupVersion = "1.0"

	// SheetSchemaVersion identifies the master spreadsheet column layout.
	SheetSchemaVersion = "1"
)
