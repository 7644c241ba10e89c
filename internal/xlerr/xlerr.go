// Package xlerr defines the shared error-kind taxonomy as a single error
// type with a comparable Kind, so callers
// can use errors.Is/errors.As across package boundaries instead of each
// package inventing its own sentinel type.
package xlerr

import "fmt"

// Kind identifies one of the named failure categories. Kinds are compared
// by value, not by the wrapping *Error identity, so errors.Is(err,
// xlerr.New(KindInvalidSheetName, "")) matches any InvalidSheetName error
// regardless of its detail text.
type Kind string

const (
	KindInvalidArgument         Kind = "InvalidArgument"
	KindDuplicateSheetName      Kind = "DuplicateSheetName"
	KindSheetLimitExceeded      Kind = "SheetLimitExceeded"
	KindInvalidSheetName        Kind = "InvalidSheetName"
	KindDuplicateRelationshipID Kind = "DuplicateRelationshipId"
	KindInvalidZip              Kind = "InvalidZip"
	KindUnsupportedZipMethod    Kind = "UnsupportedZipMethod"
	KindNotASpreadsheet         Kind = "NotASpreadsheet"
	KindUnsupportedFormat       Kind = "UnsupportedFormat"
	KindUnknownNamespace        Kind = "UnknownNamespace"
	KindUnrecognizedCellType    Kind = "UnrecognizedCellType"
	KindUnrecognizedRichFormat  Kind = "UnrecognizedRichFormat"
	KindUnsupportedVariant      Kind = "UnsupportedVariant"
)

// Error is the common error value for every taxonomy kind above. Detail is a
// free-form message; Subject optionally names the offending value (a
// NotASpreadsheet kind, for instance, carries "pdf" or "png" there).
type Error struct {
	Kind    Kind
	Subject string
	Detail  string
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("xlcore: %s(%s): %s", e.Kind, e.Subject, e.Detail)
	}
	if e.Detail != "" {
		return fmt.Sprintf("xlcore: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("xlcore: %s", e.Kind)
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, xlerr.New(k, "")) works as a kind test independent of
// Detail/Subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind with a detail message.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf builds an *Error with a formatted detail message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WithSubject builds a subject-qualified *Error (NotASpreadsheet(pdf), etc).
func WithSubject(kind Kind, subject, detail string) *Error {
	return &Error{Kind: kind, Subject: subject, Detail: detail}
}
