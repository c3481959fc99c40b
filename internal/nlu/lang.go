package nlu

import (
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Lang is the language tag sent to Dialogflow.
type Lang string

const (
	LangZhTW Lang = "zh-tw"
	LangEN   Lang = "en"
)

// CJK Unified Ideographs block.
const (
	cjkFirst = '\u4e00'
	cjkLast  = '\u9fff'
)

// DetectLanguage returns LangZhTW iff the first rune of text is a CJK
// unified ideograph, otherwise LangEN. Only the first rune is inspected, so
// "OK 吃什麼" is English and "吃 pizza" is Chinese.
func DetectLanguage(text string) Lang {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || r == utf8.RuneError {
		return LangEN
	}
	if r >= cjkFirst && r <= cjkLast {
		return LangZhTW
	}
	return LangEN
}

// Tag returns the BCP 47 tag for l.
func (l Lang) Tag() language.Tag {
	if l == LangZhTW {
		return language.Make("zh-TW")
	}
	return language.English
}

// DisplayName returns the English name of the language, e.g. "Chinese".
func (l Lang) DisplayName() string {
	return display.English.Tags().Name(l.Tag())
}
