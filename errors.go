package genodata

import "errors"

// Failure kinds. Operations wrap one of these with context (path, line,
// offending value) so callers can test for them with errors.Is.
var (
	ErrBadMagic      = errors.New("not a SNP-major PLINK binary genotype file")
	ErrTruncatedFile = errors.New("genotype file ended before all markers were read")
	ErrDuplicateKey  = errors.New("duplicate identifier")
	ErrEmptyResult   = errors.New("no entries remain in the active set")
	ErrUnresolvedSex = errors.New("sex is not resolved for an included sample")
	ErrFormat        = errors.New("malformed input")
	ErrConsistency   = errors.New("inputs are inconsistent")
	ErrNotFound      = errors.New("identifier not found")
	ErrIndexRange    = errors.New("index out of range")
)
