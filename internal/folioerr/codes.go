// Package folioerr provides the structured error taxonomy used across
// Folio's engine, store, and ingest packages.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Input faults (category 1)
//   - 2XX: Loader faults (category 2)
//   - 3XX: Storage faults (category 3)
//   - 4XX: Embedder faults (category 4)
//   - 5XX: Programmer faults (category 5) — raised as panics, never returned
package folioerr

// Category classifies a FolioError per the retrieval engine's error
// handling design.
type Category string

const (
	// CategoryInput covers unsupported ingest input, unknown source ids,
	// and missing-embedder-at-query-time faults.
	CategoryInput Category = "INPUT"
	// CategoryLoader covers decoder/OCR failures.
	CategoryLoader Category = "LOADER"
	// CategoryStorage covers migration failures, constraint violations,
	// and blob shape mismatches.
	CategoryStorage Category = "STORAGE"
	// CategoryEmbedder covers adapter errors, dimensionality mismatch,
	// and embed count mismatches during backfill.
	CategoryEmbedder Category = "EMBEDDER"
	// CategoryProgrammer covers precondition violations. Errors in this
	// category are never returned — they are raised as panics.
	CategoryProgrammer Category = "PROGRAMMER"
)

// Error codes organized by category.
const (
	// Input faults (100-199)
	ErrCodeNoLoader        = "ERR_101_NO_LOADER_MATCHES"
	ErrCodeUnknownSource   = "ERR_102_UNKNOWN_SOURCE"
	ErrCodeNoEmbedder      = "ERR_103_NO_EMBEDDER_CONFIGURED"

	// Loader faults (200-299)
	ErrCodeDecodeFailed = "ERR_201_DECODE_FAILED"
	ErrCodeOCRFailed    = "ERR_202_OCR_FAILED"

	// Storage faults (300-399)
	ErrCodeMigrationFailed   = "ERR_301_MIGRATION_FAILED"
	ErrCodeConstraint        = "ERR_302_CONSTRAINT_VIOLATION"
	ErrCodeBlobShapeMismatch = "ERR_303_BLOB_SHAPE_MISMATCH"
	ErrCodeOpenFailed        = "ERR_304_OPEN_FAILED"

	// Embedder faults (400-499)
	ErrCodeEmbedFailed         = "ERR_401_EMBED_FAILED"
	ErrCodeDimensionMismatch   = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeEmbedCountMismatch  = "ERR_403_EMBED_COUNT_MISMATCH"

	// Programmer faults (500-599) — panic only
	ErrCodeBadLimit      = "ERR_501_LIMIT_NOT_POSITIVE"
	ErrCodeBadExpand     = "ERR_502_EXPAND_OUT_OF_RANGE"
	ErrCodeBadBatch      = "ERR_503_BATCH_NOT_POSITIVE"
	ErrCodeBadStartPage  = "ERR_504_NEGATIVE_START_PAGE"
	ErrCodeBadMaxChars   = "ERR_505_MAX_CHARS_NOT_POSITIVE"
)

// categoryFromCode extracts the category from an error code of the form
// "ERR_XYZ_...".
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryStorage
	}
	switch code[4] {
	case '1':
		return CategoryInput
	case '2':
		return CategoryLoader
	case '3':
		return CategoryStorage
	case '4':
		return CategoryEmbedder
	case '5':
		return CategoryProgrammer
	default:
		return CategoryStorage
	}
}
