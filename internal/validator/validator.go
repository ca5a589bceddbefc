// Package validator checks whether a previously downloaded file is a
// complete, well-formed copy, so the fetcher can decide whether a file
// already on disk is worth keeping instead of re-downloading it.
package validator

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ContentValidator reports whether the file at path is valid and complete.
type ContentValidator interface {
	Valid(path string) bool
}

// pdfValidator validates PDFs by parsing them with pdfcpu; a file that
// fails to parse, or parses with zero pages, is treated as incomplete.
type pdfValidator struct{}

// Default returns the validator used by the fetcher for its existence-gated
// skip check.
func Default() ContentValidator {
	return pdfValidator{}
}

func (pdfValidator) Valid(path string) bool {
	return api.ValidateFile(path, nil) == nil
}
