package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLanguage is used for keys missing from the selected locale.
const DefaultLanguage = "en"

type Translator struct {
	lang         string
	translations map[string]string
	fallback     map[string]string
}

// NewTranslator loads locales/<lang>.yaml from fsys. Keys missing from a
// non-default locale fall back to the default one.
func NewTranslator(fsys fs.FS, lang string) (*Translator, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	primary, err := readLocale(fsys, lang)
	if err != nil {
		return nil, err
	}
	t := &Translator{lang: lang, translations: primary}
	if lang != DefaultLanguage {
		if fb, err := readLocale(fsys, DefaultLanguage); err == nil {
			t.fallback = fb
		}
	}
	return t, nil
}

func readLocale(fsys fs.FS, lang string) (map[string]string, error) {
	p := path.Join("locales", lang+".yaml")
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", p, err)
	}
	return parse(data)
}

func parse(data []byte) (map[string]string, error) {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return m, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	m, err := parse(data)
	if err != nil {
		return nil, err
	}
	return &Translator{lang: DefaultLanguage, translations: m}, nil
}

func (t *Translator) lookup(key string) (string, bool) {
	if v, ok := t.translations[key]; ok {
		return v, true
	}
	v, ok := t.fallback[key]
	return v, ok
}

// T formats the message for key. Unknown keys are returned as-is.
func (t *Translator) T(key string, args ...any) string {
	format, ok := t.lookup(key)
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Has reports whether key is translated.
func (t *Translator) Has(key string) bool {
	_, ok := t.lookup(key)
	return ok
}

func (t *Translator) Language() string { return t.lang }
