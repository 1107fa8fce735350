// Package textutil provides tokenization and similarity scoring for matching
// release names against show titles, plus filename sanitization helpers.
package textutil
