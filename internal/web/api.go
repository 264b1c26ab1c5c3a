package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/nconklindev/tally/internal/consolidator"
	"github.com/nconklindev/tally/internal/types"
)

// ConsolidateRequest is the JSON body of POST /api/v1/consolidate.
type ConsolidateRequest struct {
	types.Request
}

// Bind implements render.Binder.
func (c *ConsolidateRequest) Bind(r *http.Request) error {
	if c.Directory == "" {
		return errors.New("directory is required")
	}
	return nil
}

type SkippedFile struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// ConsolidateResponse summarises a successful run.
type ConsolidateResponse struct {
	RunID       string             `json:"run_id"`
	OutputPath  string             `json:"output_path"`
	Files       []types.SourceFile `json:"files"`
	Skipped     []SkippedFile      `json:"skipped,omitempty"`
	Columns     []types.Column     `json:"columns"`
	Rows        int                `json:"rows"`
	Preview     [][]string         `json:"preview"`
	ChartImages []string           `json:"chart_images"`
	DurationMS  int64              `json:"duration_ms"`
}

func newConsolidateResponse(res *types.Result) *ConsolidateResponse {
	resp := &ConsolidateResponse{
		RunID:       res.RunID,
		OutputPath:  res.OutputPath,
		Files:       res.Files,
		ChartImages: res.ChartImages,
		DurationMS:  res.Duration.Milliseconds(),
	}
	if res.Table != nil {
		resp.Columns = res.Table.Columns
		resp.Rows = len(res.Table.Rows)
		resp.Preview = previewRows(res.Table, PreviewRows)
	}
	for _, fe := range res.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedFile{Path: fe.Path, Stage: fe.Stage, Error: fe.Err.Error()})
	}
	return resp
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	HTTPStatusCode int    `json:"-"`
	Error          string `json:"error"`
	Field          string `json:"field,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrorResponse(r *http.Request, status int, err error) *ErrorResponse {
	resp := &ErrorResponse{
		HTTPStatusCode: status,
		Error:          err.Error(),
		RequestID:      middleware.GetReqID(r.Context()),
	}
	var verr *consolidator.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	return resp
}

// statusFor maps run errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case consolidator.IsValidation(err), errors.Is(err, consolidator.ErrDirectory):
		return http.StatusBadRequest
	case errors.Is(err, consolidator.ErrNoInput):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func previewRows(t *types.Table, n int) [][]string {
	head := t.Head(n)
	out := make([][]string, len(head))
	for i, row := range head {
		cells := make([]string, len(row))
		for c, v := range row {
			cells[c] = types.FormatCell(v)
		}
		out[i] = cells
	}
	return out
}
