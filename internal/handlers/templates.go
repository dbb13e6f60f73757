package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/alextreichler/storefront/internal/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "base.html"

// TemplateCache holds parsed templates
type TemplateCache struct {
	cache map[string]*template.Template
	mu    sync.RWMutex
	funcs template.FuncMap
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: template.FuncMap{
			"money": func(d decimal.Decimal) string {
				return d.StringFixed(2)
			},
			"fmtTime": func(t time.Time) string {
				return t.UTC().Format("2006-01-02 15:04 UTC")
			},
			"imageURL": func(image string) string {
				if strings.HasPrefix(image, "/") || strings.Contains(image, "://") {
					return image
				}
				return "/static/images/" + image
			},
			"inCategory": func(p *models.Product, id int64) bool {
				return p != nil && p.CategoryID != nil && *p.CategoryID == id
			},
		},
	}
}

// Load parses every page in the embedded templates dir together with the layout.
func (tc *TemplateCache) Load() error {
	return tc.LoadFS(templateFS, "templates")
}

func (tc *TemplateCache) LoadFS(fsys fs.FS, dir string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	files, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return err
	}
	for _, file := range files {
		name := path.Base(file)
		if name == layoutFile {
			continue
		}
		tmpl, err := template.New(name).Funcs(tc.funcs).ParseFS(fsys, path.Join(dir, layoutFile), file)
		if err != nil {
			slog.Error("Failed to parse template", "file", file, "error", err)
			return err
		}
		tc.cache[name] = tmpl
		slog.Debug("Cached template", "name", name)
	}
	return nil
}

func (tc *TemplateCache) Get(name string) *template.Template {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.cache[name]
}
