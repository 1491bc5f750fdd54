package utils

// LocalizedText holds a user-facing string in both supported languages.
// English is the fallback when the requested language is missing.
type LocalizedText struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

const (
	LangEnglish = "en"
	LangArabic  = "ar"
)

// Localize picks the string for the requested language, falling back to
// English, then to whatever is set.
func Localize(text LocalizedText, lang string) string {
	if lang == LangArabic && text.Ar != "" {
		return text.Ar
	}
	if text.En != "" {
		return text.En
	}
	return text.Ar
}

// PickLocalized is the two-field variant used for records that store the
// Arabic value in a separate column (subject / subject_ar).
func PickLocalized(en, ar, lang string) string {
	if lang == LangArabic && ar != "" {
		return ar
	}
	if en != "" {
		return en
	}
	return ar
}

// Message is a bilingual response message pair.
type Message struct {
	En string
	Ar string
}

// Pick returns the message text for the resolved request language.
func (m Message) Pick(lang string) string {
	if lang == LangArabic && m.Ar != "" {
		return m.Ar
	}
	return m.En
}
