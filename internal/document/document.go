// Package document assembles the printable HTML page for a form response.
package document

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"docrender/internal/domain"
)

var (
	policy = bluemonday.UGCPolicy()
	page   = template.Must(template.New("response").Parse(responseTemplate))
)

type answerView struct {
	Label  string
	Text   string
	Rich   template.HTML
	Values []string
}

type pageView struct {
	Title       string
	Workspace   string
	Respondent  string
	SubmittedAt string
	Answers     []answerView
}

// Build renders resp as a self-contained HTML document. Rich-text answers
// are sanitised; everything else is escaped.
func Build(resp domain.FormResponse) (string, error) {
	view := pageView{
		Title:      resp.TemplateName,
		Workspace:  resp.WorkspaceName,
		Respondent: resp.Respondent,
	}
	if view.Title == "" {
		view.Title = "Form response"
	}
	if !resp.SubmittedAt.IsZero() {
		view.SubmittedAt = resp.SubmittedAt.UTC().Format("2 January 2006, 15:04 MST")
	}
	for _, a := range resp.Answers {
		av := answerView{Label: a.Label}
		switch a.Type {
		case domain.AnswerRichText:
			av.Rich = template.HTML(policy.Sanitize(a.Value))
		case domain.AnswerList, domain.AnswerChoice:
			av.Values = a.Values
			if len(av.Values) == 0 && a.Value != "" {
				av.Values = []string{a.Value}
			}
		default:
			av.Text = a.Value
		}
		view.Answers = append(view.Answers, av)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("build response document: %w", err)
	}
	return buf.String(), nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Filename derives the attachment name from the response metadata:
// <template>-<respondent>-<yyyymmdd>.pdf, falling back to response-<id>.pdf.
func Filename(resp domain.FormResponse) string {
	var parts []string
	for _, p := range []string{resp.TemplateName, resp.Respondent} {
		if s := slug(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		id := slug(resp.ID)
		if id == "" {
			id = "export"
		}
		return "response-" + id + ".pdf"
	}
	if !resp.SubmittedAt.IsZero() {
		parts = append(parts, resp.SubmittedAt.UTC().Format("20060102"))
	}
	return strings.Join(parts, "-") + ".pdf"
}

const responseTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1f2933; font-size: 12pt; }
  header { border-bottom: 2px solid #e4e7eb; margin-bottom: 16pt; padding-bottom: 8pt; }
  h1 { font-size: 20pt; margin: 0 0 4pt 0; }
  .meta { color: #616e7c; font-size: 10pt; }
  .answer { break-inside: avoid; margin-bottom: 12pt; }
  .label { font-weight: 600; margin-bottom: 2pt; }
  .value { white-space: pre-wrap; }
  ul { margin: 0; padding-left: 16pt; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <div class="meta">
    {{- if .Workspace}}<span>{{.Workspace}}</span>{{end}}
    {{- if .Respondent}} · <span>{{.Respondent}}</span>{{end}}
    {{- if .SubmittedAt}} · <span>{{.SubmittedAt}}</span>{{end -}}
  </div>
</header>
<main>
{{- range .Answers}}
  <section class="answer">
    <div class="label">{{.Label}}</div>
    {{- if .Rich}}
    <div class="value rich">{{.Rich}}</div>
    {{- else if .Values}}
    <ul>{{range .Values}}<li>{{.}}</li>{{end}}</ul>
    {{- else}}
    <div class="value">{{.Text}}</div>
    {{- end}}
  </section>
{{- end}}
</main>
</body>
</html>
`
