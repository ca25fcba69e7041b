package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/umarmnaq/pipenv/pkg/convert"
	"github.com/umarmnaq/pipenv/pkg/errors"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
	"github.com/umarmnaq/pipenv/pkg/registry"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// lintResponse is the POST /v1/lint reply.
type lintResponse struct {
	Valid       bool             `json:"valid"`
	Diagnostics []lintDiagnostic `json:"diagnostics"`
}

type lintDiagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Section  string `json:"section,omitempty"`
	Name     string `json:"name,omitempty"`
	Message  string `json:"message"`
}

// handleLint parses and validates a Pipfile posted as the request body.
// Parse failures are reported as a lint result, not an HTTP error, so
// clients get diagnostics either way.
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		return
	}

	m, err := pipfile.Parse(body)
	if err != nil {
		writeJSON(w, http.StatusOK, lintResponse{
			Valid: false,
			Diagnostics: []lintDiagnostic{{
				Severity: string(pipfile.SeverityError),
				Code:     string(errors.GetCode(err)),
				Message:  errors.UserMessage(err),
			}},
		})
		return
	}

	diags := m.Validate()
	resp := lintResponse{
		Valid:       !diags.HasErrors(),
		Diagnostics: make([]lintDiagnostic, 0, len(diags)),
	}
	for _, d := range diags {
		resp.Diagnostics = append(resp.Diagnostics, lintDiagnostic{
			Severity: string(d.Severity),
			Code:     string(d.Code),
			Section:  d.Section,
			Name:     d.Name,
			Message:  d.Message,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConvert translates a posted Pipfile to another format, selected
// by the format query parameter: requirements (default), requirements-dev,
// or conda.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		return
	}

	m, err := pipfile.Parse(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if diags := m.Validate(); diags.HasErrors() {
		writeError(w, http.StatusUnprocessableEntity, diags.Err())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "requirements"
	}

	var out strings.Builder
	switch format {
	case "requirements", "requirements-dev":
		opts := convert.RequirementsOptions{Dev: format == "requirements-dev"}
		err = convert.Requirements(&out, m, opts)
	case "conda":
		err = convert.CondaEnv(&out, m, convert.CondaOptions{Name: r.URL.Query().Get("name")})
	default:
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, out.String())
}

// handlePackage proxies a metadata lookup to the configured index.
func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	refresh := r.URL.Query().Get("refresh") == "true"

	info, err := s.registry.FetchPackage(r.Context(), name, refresh)
	if err != nil {
		status := http.StatusBadGateway
		if registry.IsNotFound(err) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge,
			errors.Wrap(errors.ErrCodeInvalidInput, err, "reading request body"))
		return nil, err
	}
	return body, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
