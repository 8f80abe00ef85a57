//go:build !cgo

package classify

import "context"

// StructuralParsing reports whether declarations come from a syntax tree.
// Returns false when CGO is disabled.
func StructuralParsing() bool { return false }

// parseDeclarations is unavailable without CGO; callers fall back to patterns.
func parseDeclarations(_ context.Context, _ Language, _ []byte) (Declarations, bool) {
	return Declarations{}, false
}
