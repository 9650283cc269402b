package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/orderdash/orderdash/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

// Module provides the page renderer to Fx.
var Module = fx.Provide(NewRenderer)

// Renderer implements echo.Renderer over the embedded page templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates once at startup.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"statusClass": statusClass,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Render writes the named template with the given data.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// statusClass maps an order status to its badge CSS class.
func statusClass(status entity.Status) string {
	switch status {
	case entity.StatusPending:
		return "badge-pending"
	case entity.StatusProcessing:
		return "badge-processing"
	case entity.StatusCompleted:
		return "badge-completed"
	case entity.StatusCancelled:
		return "badge-cancelled"
	default:
		return "badge-pending"
	}
}
