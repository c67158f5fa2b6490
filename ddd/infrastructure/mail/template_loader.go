package mail

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// ErrTemplateNotFound is returned when no source holds the template.
var ErrTemplateNotFound = errors.New("mail: template not found")

// TemplateLoader looks templates up by name, first in an optional override
// directory, then in the templates compiled into the binary.
type TemplateLoader struct {
	sources []fs.FS
}

// NewTemplateLoader returns a loader; dir may be empty.
func NewTemplateLoader(dir string) *TemplateLoader {
	builtin, _ := fs.Sub(embeddedTemplates, "templates")
	l := &TemplateLoader{}
	if dir != "" {
		l.sources = append(l.sources, os.DirFS(dir))
	}
	l.sources = append(l.sources, builtin)
	return l
}

// LoadTemplate returns the raw source of name, e.g. "notification.html".
func (l *TemplateLoader) LoadTemplate(name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: invalid name %q", ErrTemplateNotFound, name)
	}
	for _, src := range l.sources {
		b, err := fs.ReadFile(src, name)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("mail: read template %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}
