package validation

import "regexp"

// RFC 6749 Appendix A character classes, compiled once and fully anchored.
// A predicate answers "the whole value is inside the class"; the empty
// string never matches. Callers that allow an optional parameter must skip
// the check when the value is absent.
var (
	// nchar: word chars plus "-" "." "_" (client identifiers, grant names).
	ncharRe = regexp.MustCompile(`^[-._\w]+$`)

	// nqchar: visible ASCII minus double quote and backslash.
	nqcharRe = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]+$`)

	// nqschar: nqchar plus space (scope strings).
	nqscharRe = regexp.MustCompile(`^[\x20-\x21\x23-\x5B\x5D-\x7E]+$`)

	// unicodecharnocrlf: any printable unicode except CR/LF (user credentials).
	unicodeNoCRLFRe = regexp.MustCompile(`^[\x09\x20-\x7E\x80-\x{D7FF}\x{E000}-\x{FFFD}\x{10000}-\x{10FFFF}]+$`)

	// uri: solo chequea el prefijo de scheme ("https:", "myapp:"), no la URI completa.
	uriRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]+:`)

	// vschar: visible ASCII plus space (state, tokens, secrets).
	vscharRe = regexp.MustCompile(`^[\x20-\x7E]+$`)
)

// IsNCHAR reports whether s consists only of NCHAR characters.
func IsNCHAR(s string) bool { return ncharRe.MatchString(s) }

// IsNQCHAR reports whether s consists only of NQCHAR characters.
func IsNQCHAR(s string) bool { return nqcharRe.MatchString(s) }

// IsNQSCHAR reports whether s consists only of NQSCHAR characters.
func IsNQSCHAR(s string) bool { return nqscharRe.MatchString(s) }

// IsUnicodeNoCRLF reports whether s consists only of UNICODECHARNOCRLF characters.
func IsUnicodeNoCRLF(s string) bool { return unicodeNoCRLFRe.MatchString(s) }

// IsURI reports whether s starts with a plausible URI scheme.
func IsURI(s string) bool { return uriRe.MatchString(s) }

// IsVSCHAR reports whether s consists only of VSCHAR characters.
func IsVSCHAR(s string) bool { return vscharRe.MatchString(s) }
