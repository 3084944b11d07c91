package glue

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

const (
	tmplIdentifierTables = "identifierTables"
	tmplInstanceDecls    = "instanceDecls"
	tmplInstanceShells   = "instanceShells"
	tmplInstanceLife     = "instanceLifecycle"
	tmplStaticDecls      = "staticDecls"
	tmplStaticShells     = "staticShells"
	tmplStaticLife       = "staticLifecycle"
	tmplInvokeGuard      = "invokeGuard"
	tmplGetGuard         = "getGuard"
	tmplSetGuard         = "setGuard"
	tmplConstructGuard   = "constructGuard"
	tmplBootstrapDecls   = "bootstrapDecls"
	tmplBootstrapDefs    = "bootstrapDefs"
)

const templatePattern = "templates/*.gtpl"

//go:embed templates/*.gtpl
var templatesFS embed.FS

var (
	glueTmpl     *template.Template
	tmplInitOnce sync.Once
	tmplInitErr  error
)

// validateTemplates ensures all required templates are defined.
func validateTemplates() error {
	required := []string{
		tmplIdentifierTables,
		tmplInstanceDecls,
		tmplInstanceShells,
		tmplInstanceLife,
		tmplStaticDecls,
		tmplStaticShells,
		tmplStaticLife,
		tmplInvokeGuard,
		tmplGetGuard,
		tmplSetGuard,
		tmplConstructGuard,
		tmplBootstrapDecls,
		tmplBootstrapDefs,
	}
	for _, name := range required {
		if glueTmpl.Lookup(name) == nil {
			return fmt.Errorf("required template %q not found", name)
		}
	}
	return nil
}

// ensureTemplates parses and validates templates exactly once.
func ensureTemplates() error {
	tmplInitOnce.Do(func() {
		var t *template.Template
		t, tmplInitErr = template.New("glue").ParseFS(templatesFS, templatePattern)
		if tmplInitErr != nil {
			return
		}
		glueTmpl = t
		tmplInitErr = validateTemplates()
	})
	return tmplInitErr
}

func renderTemplate(name string, data any) (string, error) {
	if err := ensureTemplates(); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := glueTmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", name, err)
	}
	return sb.String(), nil
}
