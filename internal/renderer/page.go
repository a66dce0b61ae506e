package renderer

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <script src="{{.MermaidURL}}"></script>
  <style>
    body { margin: 0; padding: 20px; background: {{.Background}}; font-family: Arial, sans-serif; }
    svg { width: 100%; height: 100%; background: {{.Background}}; }
  </style>
</head>
<body>
  <div class="mermaid">{{.Source}}</div>
  <script>
    mermaid.initialize({
      startOnLoad: false,
      theme: {{.Theme}},
      securityLevel: 'loose',
      fontFamily: 'Arial, sans-serif'
    });
    mermaid.run({ querySelector: '.mermaid' }).catch(function (err) {
      window.__renderError = String((err && err.message) || err);
    });
  </script>
</body>
</html>
`))

type pageData struct {
	MermaidURL string
	Background template.CSS
	Theme      string
	Source     string
}

// buildPage renders the working HTML page for source.
func buildPage(opts Options, source string) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		MermaidURL: opts.MermaidURL,
		Background: template.CSS(opts.Background),
		Theme:      opts.Theme,
		Source:     source,
	})
	if err != nil {
		return nil, fmt.Errorf("build page: %w", err)
	}
	return buf.Bytes(), nil
}

// writePage materializes the working page for job and returns its path.
// The caller owns removal.
func writePage(opts Options, job Job) (string, error) {
	content, err := buildPage(opts, job.Source)
	if err != nil {
		return "", err
	}
	path := filepath.Join(job.WorkDir, fmt.Sprintf("temp_%s.html", job.ID))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write page: %w", err)
	}
	return path, nil
}
