// Package i18n resuelve el idioma del request y traduce claves de mensaje
// contra los diccionarios embebidos (dictionary/<lang>.json).
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// LangParam es el query param que elige el idioma de la respuesta.
const LangParam = "lang"

//go:embed dictionary/*.json
var dictFS embed.FS

// placeholder matchea {{nombre}} en los diccionarios.
var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Bundle guarda los diccionarios cargados, el catálogo x/text compilado y
// los idiomas soportados.
type Bundle struct {
	def      string
	tags     []language.Tag
	matcher  language.Matcher
	messages map[string]map[string]string
	params   map[string]map[string][]string // lang -> key -> nombres en orden de índice
	printers map[string]*message.Printer
}

// NewBundle carga los diccionarios de los idiomas soportados y los registra
// en un catálogo propio. El idioma default tiene que estar entre los soportados.
func NewBundle(defaultLang string, supported []string) (*Bundle, error) {
	b := &Bundle{
		messages: make(map[string]map[string]string, len(supported)),
		params:   make(map[string]map[string][]string, len(supported)),
		printers: make(map[string]*message.Printer, len(supported)),
	}
	cat := catalog.NewBuilder()

	for _, s := range supported {
		base, ok := baseOf(s)
		if !ok {
			return nil, fmt.Errorf("i18n: invalid language %q", s)
		}
		raw, err := dictFS.ReadFile("dictionary/" + base + ".json")
		if err != nil {
			return nil, fmt.Errorf("i18n: missing dictionary for %q: %w", base, err)
		}
		var msgs map[string]string
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("i18n: parse dictionary %q: %w", base, err)
		}
		tag := language.Make(base)
		params := make(map[string][]string, len(msgs))
		for key, msg := range msgs {
			format, names := compile(msg)
			if err := cat.SetString(tag, key, format); err != nil {
				return nil, fmt.Errorf("i18n: register %s/%s: %w", base, key, err)
			}
			params[key] = names
		}
		b.messages[base] = msgs
		b.params[base] = params
		b.tags = append(b.tags, tag)
	}

	def, ok := baseOf(defaultLang)
	if !ok || b.messages[def] == nil {
		return nil, fmt.Errorf("i18n: default language %q is not supported", defaultLang)
	}
	b.def = def

	// El matcher prefiere el primer tag, así que el default va primero.
	ordered := []language.Tag{language.Make(def)}
	for _, t := range b.tags {
		if t != ordered[0] {
			ordered = append(ordered, t)
		}
	}
	b.tags = ordered
	b.matcher = language.NewMatcher(ordered)
	for _, t := range ordered {
		base, _ := t.Base()
		b.printers[base.String()] = message.NewPrinter(t, message.Catalog(cat))
	}
	return b, nil
}

// compile pasa un mensaje {{nombre}} al formato posicional de x/text
// (%[n]v) y devuelve los nombres en orden de índice. Los % literales se escapan.
func compile(msg string) (string, []string) {
	var names []string
	index := map[string]int{}
	escaped := strings.ReplaceAll(msg, "%", "%%")
	format := placeholder.ReplaceAllStringFunc(escaped, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		i, ok := index[name]
		if !ok {
			names = append(names, name)
			i = len(names)
			index[name] = i
		}
		return fmt.Sprintf("%%[%d]v", i)
	})
	return format, names
}

var defaultBundle = sync.OnceValue(func() *Bundle {
	b, err := NewBundle("en", []string{"en", "es"})
	if err != nil {
		panic(err)
	}
	return b
})

// Default devuelve el bundle en/es que se usa cuando no se inyectó otro.
func Default() *Bundle { return defaultBundle() }

// DefaultLang devuelve el idioma de fallback.
func (b *Bundle) DefaultLang() string { return b.def }

// Supported indica si value es un idioma soportado y devuelve su forma base
// ("es-AR" -> "es").
func (b *Bundle) Supported(value string) (string, bool) {
	base, ok := baseOf(value)
	if !ok {
		return "", false
	}
	if _, ok := b.messages[base]; !ok {
		return "", false
	}
	return base, true
}

// Normalize devuelve el idioma base soportado para value, o el default.
func (b *Bundle) Normalize(value string) string {
	if base, ok := b.Supported(value); ok {
		return base
	}
	return b.def
}

// Resolve elige el idioma del request: gana el query param lang (si no está
// soportado cae al default), después Accept-Language.
func (b *Bundle) Resolve(r *http.Request) string {
	if r == nil {
		return b.def
	}
	if q := r.URL.Query(); q.Has(LangParam) {
		return b.Normalize(strings.TrimSpace(q.Get(LangParam)))
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if _, idx, conf := b.matcher.Match(tags...); conf != language.No {
				return b.Normalize(b.tags[idx].String())
			}
		}
	}
	return b.def
}

// T traduce key en lang con fallback al diccionario default y después a la
// key misma. Los args llenan los {{nombre}}; los que falten quedan literales.
func (b *Bundle) T(lang, key string, args map[string]any) string {
	lang = b.Normalize(lang)
	if _, ok := b.messages[lang][key]; !ok {
		if _, ok := b.messages[b.def][key]; !ok {
			return key
		}
		lang = b.def
	}
	names := b.params[lang][key]
	values := make([]any, len(names))
	for i, name := range names {
		v, ok := args[name]
		if !ok {
			v = "{{" + name + "}}"
		}
		values[i] = v
	}
	return b.printers[lang].Sprintf(key, values...)
}

// For ata el bundle a un idioma.
func (b *Bundle) For(lang string) Localizer {
	return Localizer{bundle: b, lang: b.Normalize(lang)}
}

// Localizer es un bundle atado a un idioma.
type Localizer struct {
	bundle *Bundle
	lang   string
}

func (l Localizer) Lang() string { return l.lang }

func (l Localizer) T(key string, args map[string]any) string {
	return l.bundle.T(l.lang, key, args)
}

// Prefer devuelve el idioma base de value si está soportado; si no, el del
// propio localizer.
func (l Localizer) Prefer(value string) string {
	if base, ok := l.bundle.Supported(value); ok {
		return base
	}
	return l.lang
}

type ctxKey struct{}

// WithLocalizer guarda el localizer del request en ctx.
func WithLocalizer(ctx context.Context, l Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext devuelve el localizer del request, o el bundle default atado
// a su idioma default.
func FromContext(ctx context.Context) Localizer {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Localizer); ok && l.bundle != nil {
			return l
		}
	}
	d := Default()
	return d.For(d.def)
}

func baseOf(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), true
}
