// Package readers turns raw connector bytes into documents.
//
// Each sub-package handles one domain.DocumentFormat. The Registry
// resolves a raw document's format once, from its MIME type or file
// extension, and hands it to the matching reader. A format with no
// reader fails with domain.ErrUnsupportedFormat so ingestion can report
// the document instead of dropping it.
package readers
