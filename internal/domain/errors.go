package domain

import "fmt"

// ValidationKind classifies why a record was rejected during normalization.
type ValidationKind string

const (
	ValidationMissingField    ValidationKind = "MissingField"
	ValidationInvalidType     ValidationKind = "InvalidType"
	ValidationInvalidQuantity ValidationKind = "InvalidQuantity"
)

// ValidationError reports a single record that failed schema validation.
// The record is dropped; its siblings in the batch are unaffected.
type ValidationError struct {
	Kind     ValidationKind
	Field    string
	Location ArchiveLocation
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s on field %q", e.Location, e.Kind, e.Field)
}

// ArchiveError reports an outer or inner archive that could not be opened.
// The archive is skipped; the run continues. Inner is empty when the outer
// archive itself failed.
type ArchiveError struct {
	Outer string
	Inner string
	Err   error
}

func (e ArchiveError) Error() string {
	if e.Inner == "" {
		return fmt.Sprintf("archive %s unreadable: %v", e.Outer, e.Err)
	}
	return fmt.Sprintf("archive %s/%s unreadable: %v", e.Outer, e.Inner, e.Err)
}

func (e ArchiveError) Unwrap() error { return e.Err }

// PartParseError reports a part-file whose content is not a JSON array of
// event objects. The part-file is skipped; the run continues.
type PartParseError struct {
	Outer string
	Inner string
	Part  string
	Err   error
}

func (e PartParseError) Error() string {
	return fmt.Sprintf("part %s/%s/%s not parseable: %v", e.Outer, e.Inner, e.Part, e.Err)
}

func (e PartParseError) Unwrap() error { return e.Err }
