package folioerr

import "fmt"

// FolioError is the structured error type used throughout the engine.
// Categories 1-4 (Input, Loader, Storage, Embedder) are returned as
// ordinary errors. Category 5 (Programmer) is never returned — it is
// raised with Panic and recovered only at a process boundary, if at all.
type FolioError struct {
	// Code is the unique error code, e.g. "ERR_303_BLOB_SHAPE_MISMATCH".
	Code string

	// Message is the human-readable error message.
	Message string

	// Category classifies the fault.
	Category Category

	// Details carries additional structured context.
	Details map[string]string

	// Cause is the wrapped underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *FolioError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *FolioError) Unwrap() error {
	return e.Cause
}

// Is matches another *FolioError by code, so errors.Is(err, folioerr.New(Code, "", nil)) works.
func (e *FolioError) Is(target error) bool {
	t, ok := target.(*FolioError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail attaches a key/value detail and returns the error for chaining.
func (e *FolioError) WithDetail(key, value string) *FolioError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a FolioError with a category derived from the code.
func New(code, message string, cause error) *FolioError {
	return &FolioError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a FolioError from an existing error, reusing its message.
func Wrap(code string, err error) *FolioError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Input creates a category-1 Input fault.
func Input(code, message string, cause error) *FolioError { return New(code, message, cause) }

// Loader creates a category-2 Loader fault.
func Loader(code, message string, cause error) *FolioError { return New(code, message, cause) }

// Storage creates a category-3 Storage fault.
func Storage(code, message string, cause error) *FolioError { return New(code, message, cause) }

// Embedder creates a category-4 Embedder fault.
func Embedder(code, message string, cause error) *FolioError { return New(code, message, cause) }

// Panic raises a category-5 Programmer fault. It never returns.
func Panic(code, message string) {
	panic(New(code, message, nil))
}

// GetCode extracts the error code, or "" if err is not a *FolioError.
func GetCode(err error) string {
	if fe, ok := err.(*FolioError); ok {
		return fe.Code
	}
	return ""
}

// GetCategory extracts the category, or "" if err is not a *FolioError.
func GetCategory(err error) Category {
	if fe, ok := err.(*FolioError); ok {
		return fe.Category
	}
	return ""
}
