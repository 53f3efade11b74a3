package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"

	"github.com/dropDatabas3/hellousers/internal/i18n"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Plantillas disponibles.
const (
	TemplateCodePassword   = "codePassword"
	TemplateResetPassword  = "resetPassword"
	TemplateAccountCreated = "accountCreated"
)

// Vars variables de las plantillas (cada una usa las suyas).
type Vars struct {
	Name string
	Code string
	TTL  string
	Link string
}

type pair struct {
	html *htmltpl.Template
	text *texttpl.Template
}

// Renderer resuelve plantilla + idioma con fallback al idioma por defecto.
type Renderer struct {
	bundle *i18n.Bundle
	tpls   map[string]pair // "<name>.<lang>"
}

// NewRenderer parsea las plantillas embebidas de los idiomas del bundle.
func NewRenderer(bundle *i18n.Bundle) (*Renderer, error) {
	if bundle == nil {
		bundle = i18n.Default()
	}
	r := &Renderer{bundle: bundle, tpls: map[string]pair{}}
	for _, name := range []string{TemplateCodePassword, TemplateResetPassword, TemplateAccountCreated} {
		for _, lang := range []string{"en", "es"} {
			key := name + "." + lang
			h, err := htmltpl.ParseFS(templateFS, "templates/"+key+".html")
			if err != nil {
				return nil, fmt.Errorf("email template %s: %w", key, err)
			}
			t, err := texttpl.ParseFS(templateFS, "templates/"+key+".txt")
			if err != nil {
				return nil, fmt.Errorf("email template %s: %w", key, err)
			}
			r.tpls[key] = pair{html: h, text: t}
		}
	}
	return r, nil
}

// Render devuelve asunto, html y texto de la plantilla en lang.
func (r *Renderer) Render(name, lang string, vars Vars) (subject, html, text string, err error) {
	lang = r.bundle.Normalize(lang)
	p, ok := r.tpls[name+"."+lang]
	if !ok {
		if p, ok = r.tpls[name+"."+r.bundle.DefaultLang()]; !ok {
			return "", "", "", fmt.Errorf("email template %q not found", name)
		}
	}
	var hb, tb bytes.Buffer
	if err := p.html.Execute(&hb, vars); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	if err := p.text.Execute(&tb, vars); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	subject = r.bundle.T(lang, "email."+name+".subject", nil)
	return subject, hb.String(), tb.String(), nil
}

// Mailer arma y envía un correo de plantilla.
type Mailer struct {
	Sender   Sender
	Renderer *Renderer
}

func (m *Mailer) Send(to, name, lang string, vars Vars) error {
	subject, html, text, err := m.Renderer.Render(name, lang, vars)
	if err != nil {
		return err
	}
	return m.Sender.Send(to, subject, html, text)
}
