package web

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/nconklindev/tally/internal/types"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Tally</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
label { display: block; margin-top: .5rem; }
table { border-collapse: collapse; margin-top: 1rem; }
td, th { border: 1px solid #ccc; padding: .2rem .5rem; }
.error { color: #c0392b; }
.success { color: #1b8a5a; }
</style>
</head>
<body>
<h1>Tally</h1>
<form method="post" action="/">
<label>Directory <input name="directory" size="60" value="{{.Request.Directory}}"></label>
<label>Start column <input name="start_column" size="4" value="{{.Request.StartColumn}}"></label>
<label>End column <input name="end_column" size="4" value="{{.Request.EndColumn}}"></label>
<label>Start row <input name="start_row" size="6" value="{{.Request.StartRow}}"></label>
<p><button type="submit">Consolidate</button></p>
</form>
{{with .Error}}<p class="error">Error: {{.}}</p>{{end}}
{{with .Result}}
<p class="success">Data consolidated into {{.OutputPath}}</p>
<p>{{len .Files}} file(s), {{$.Rows}} row(s).</p>
{{if .Skipped}}<ul>{{range .Skipped}}<li class="error">Skipped {{.Path}}: {{.Err}}</li>{{end}}</ul>{{end}}
<table>
<tr>{{range $.Headers}}<th>{{.}}</th>{{end}}</tr>
{{range $.Preview}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

type pageData struct {
	Request types.Request
	Result  *types.Result
	Headers []string
	Preview [][]string
	Rows    int
	Error   string
}

// showForm handles GET /.
func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, pageData{})
}

// submitForm handles POST / and renders the outcome below the form.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, pageData{Error: err.Error()})
		return
	}

	data := pageData{Request: types.Request{
		Directory:   r.PostFormValue("directory"),
		StartColumn: r.PostFormValue("start_column"),
		EndColumn:   r.PostFormValue("end_column"),
		StartRow:    r.PostFormValue("start_row"),
	}}

	res, err := h.run(r.Context(), data.Request)
	if err != nil {
		data.Error = err.Error()
		h.renderPage(w, r, statusFor(err), data)
		return
	}

	data.Result = res
	data.Headers = res.Table.Headers()
	data.Preview = previewRows(res.Table, PreviewRows)
	data.Rows = len(res.Table.Rows)
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.ErrorContext(r.Context(), "rendering page failed", slog.String("error", err.Error()))
	}
}
