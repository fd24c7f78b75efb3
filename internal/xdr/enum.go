package xdr

import "fmt"

// Cross-enum comparison: the source this client is modeled on guards enum
// equality with a runtime isinstance check, raising when two different enum
// classes are compared and panicking unconditionally on ordering. Go's
// static type system gives the equality half of that guarantee for free and
// earlier: Nfsstat3 and Mountstat3 are distinct named types, so "a == b"
// across them is a compile error rather than a runtime one. Ordering is not
// blocked: "a < b" on two values of the same enum type compiles. Every
// concrete enum in this module (Nfsstat3, Mountstat3, ...) is a plain named
// int32 with its own NameTable rather than a shared generic wrapper, so that
// holds without any extra machinery here. See DESIGN.md for the
// corresponding Open Question.

// NameTable maps an enum's wire values to their RFC mnemonic. Unknown values
// are never rewritten: Name falls back to "?" plus the raw integer, per the
// invariant that unlisted enum values are preserved rather than silently
// normalized.
type NameTable[T ~int32] map[T]string

// Name looks up the mnemonic for v, or a placeholder carrying the raw value
// if the wire sent something outside the table.
func (t NameTable[T]) Name(v T) string {
	if name, ok := t[v]; ok {
		return name
	}
	return fmt.Sprintf("?(%d)", int32(v))
}
