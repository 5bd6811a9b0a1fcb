// Package pdf renders lorry receipts to PDF through headless Chrome.
package pdf

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"

	"github.com/aniladanir/lr-gateway/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var lrTemplate = template.Must(template.ParseFS(templateFS, "templates/lr.html"))

const (
	MinTemplate = 1
	MaxTemplate = 8
)

// Theme is the look of one numbered template.
type Theme struct {
	Font       template.CSS
	Accent     template.CSS
	HeaderText template.CSS
	Shade      template.CSS
	Rule       template.CSS
	Border     template.CSS
	Align      template.CSS
	ShowRaw    bool
}

var themes = [MaxTemplate]Theme{
	{Font: "Arial, sans-serif", Accent: "#1f4e79", HeaderText: "#fff", Shade: "#e8eef5", Rule: "#9bb1c8", Border: "2px solid #1f4e79", Align: "left"},
	{Font: "Georgia, serif", Accent: "#7b2d26", HeaderText: "#fff", Shade: "#f6ebe9", Rule: "#c9a29d", Border: "1px solid #7b2d26", Align: "center"},
	{Font: "Verdana, sans-serif", Accent: "#2e7d32", HeaderText: "#fff", Shade: "#e9f4ea", Rule: "#a5cfa8", Border: "2px dashed #2e7d32", Align: "left", ShowRaw: true},
	{Font: "Tahoma, sans-serif", Accent: "#fbc02d", HeaderText: "#222", Shade: "#fff8e1", Rule: "#e0c36b", Border: "3px double #f9a825", Align: "center"},
	{Font: "'Courier New', monospace", Accent: "#212121", HeaderText: "#fff", Shade: "#eeeeee", Rule: "#9e9e9e", Border: "1px solid #212121", Align: "left", ShowRaw: true},
	{Font: "'Trebuchet MS', sans-serif", Accent: "#6a1b9a", HeaderText: "#fff", Shade: "#f3e5f5", Rule: "#ce93d8", Border: "2px solid #6a1b9a", Align: "right"},
	{Font: "Helvetica, sans-serif", Accent: "#00838f", HeaderText: "#fff", Shade: "#e0f7fa", Rule: "#80deea", Border: "none", Align: "center"},
	{Font: "'Times New Roman', serif", Accent: "#ffffff", HeaderText: "#1f4e79", Shade: "#f5f5f5", Rule: "#bdbdbd", Border: "4px solid #1f4e79", Align: "center", ShowRaw: true},
}

type view struct {
	Company string
	Theme   Theme
	Record  domain.LRRecord
	Raw     string
	ShowRaw bool
}

// RenderHTML fills template number templateID with rec.
func RenderHTML(templateID int, company string, rec domain.LRRecord, raw string) ([]byte, error) {
	if templateID < MinTemplate || templateID > MaxTemplate {
		return nil, fmt.Errorf("template %d out of range %d-%d", templateID, MinTemplate, MaxTemplate)
	}
	theme := themes[templateID-1]

	var buf bytes.Buffer
	err := lrTemplate.Execute(&buf, view{
		Company: company,
		Theme:   theme,
		Record:  rec,
		Raw:     raw,
		ShowRaw: theme.ShowRaw && raw != "",
	})
	if err != nil {
		return nil, fmt.Errorf("execute template %d: %w", templateID, err)
	}
	return buf.Bytes(), nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitize turns s into a short file name fragment.
func sanitize(s string) string {
	if s == "" {
		s = "message"
	}
	s = unsafeChars.ReplaceAllString(s, "_")
	if len(s) > 30 {
		s = s[:30]
	}
	return s
}
