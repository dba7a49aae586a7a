package reader

// Character classifiers for the byte-oriented grammar. The source language is
// pure ASCII; anything above 0x7f fails every predicate and therefore every
// production.

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// isPrintable reports whether c may appear in a character literal.
func isPrintable(c byte) bool {
	return isDigit(c) || isAlpha(c) || isPunct(c)
}

func isPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') ||
		(c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

// isSymbolStart reports whether c may begin a symbol.
func isSymbolStart(c byte) bool {
	if isAlpha(c) {
		return true
	}
	switch c {
	case '-', '+', '=', '_', '*', '&', '^', '%', '$', '!', '~', ':', '|', '\\', '?', '/', '<', '>':
		return true
	}
	return false
}

// isSymbolChar reports whether c may continue a symbol.
func isSymbolChar(c byte) bool {
	return isSymbolStart(c) || isDigit(c)
}
