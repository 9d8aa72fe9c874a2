package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"pdf-quiz/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// markdown renders model text. Raw HTML in the input is escaped.
func markdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

var funcMap = template.FuncMap{
	"markdown": markdown,
	"add": func(a, b int) int {
		return a + b
	},
	"labels": func() []string {
		return models.OptionLabels
	},
}

type pages struct {
	templates map[string]*template.Template
}

func loadPages() (*pages, error) {
	p := &pages{templates: make(map[string]*template.Template)}
	for _, name := range []string{"index", "quiz", "results"} {
		t, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

func (p *pages) render(c *gin.Context, status int, name string, data gin.H) {
	var buf bytes.Buffer
	if err := p.templates[name].ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
