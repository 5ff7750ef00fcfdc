// Package acta defines the visit record ("acta") captured in the field and
// the adapter that normalizes stored documents into it.
//
// The JSON field names are a compatibility contract with records captured
// by earlier versions of the application and must not be renamed.
package acta
