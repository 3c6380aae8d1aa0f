package vectorspace

import (
	"strings"
	"unicode"
)

// Tokenize pasa a minúsculas y devuelve las secuencias de al menos dos
// caracteres de palabra (letras, dígitos o '_'). La puntuación separa tokens.
func Tokenize(doc string) []string {
	doc = strings.ToLower(doc)

	var tokens []string
	start := -1
	runes := 0
	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			tokens = append(tokens, doc[start:end])
		}
		start, runes = -1, 0
	}

	for i, r := range doc {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(doc))
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
