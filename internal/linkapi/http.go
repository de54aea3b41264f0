package linkapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/signalsfoundry/linkplanner/internal/logging"
	"github.com/signalsfoundry/linkplanner/internal/observability"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxBodyBytes bounds request bodies on every POST route.
const maxBodyBytes = 1 << 20

type httpAPI struct {
	svc     *Service
	metrics *observability.APICollector
	log     logging.Logger
}

// NewHTTPHandler exposes svc as a JSON API:
//
//	POST /link-budget      EvaluateLinkRequest -> EvaluateLinkResponse
//	POST /scenario         scenario document (YAML or JSON) -> EvaluateLinkResponse
//	POST /fade-margin      EstimateFadeMarginRequest -> EstimateFadeMarginResponse
//	GET  /presets          ListPresetsResponse
//	GET  /presets/{name}   GetPresetResponse
//	GET  /healthz
//
// Errors are returned as {"error": "...", "code": "..."} with the status
// derived from the gRPC code.
func NewHTTPHandler(svc *Service, metrics *observability.APICollector, log logging.Logger) http.Handler {
	if log == nil {
		log = logging.Noop()
	}
	api := &httpAPI{svc: svc, metrics: metrics, log: log}

	mux := http.NewServeMux()
	api.handle(mux, "POST /link-budget", api.evaluateLink)
	api.handle(mux, "POST /scenario", api.analyzeScenario)
	api.handle(mux, "POST /fade-margin", api.fadeMargin)
	api.handle(mux, "GET /presets", api.listPresets)
	api.handle(mux, "GET /presets/{name}", api.getPreset)
	api.handle(mux, "GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (a *httpAPI) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	var h http.Handler = fn
	h = a.metrics.HTTPMiddleware(pattern, h)
	h = TracingMiddleware(pattern, h)
	h = RequestIDMiddleware(a.log, h)
	mux.Handle(pattern, h)
}

func (a *httpAPI) evaluateLink(w http.ResponseWriter, r *http.Request) {
	var req EvaluateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := a.svc.EvaluateLink(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *httpAPI) analyzeScenario(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, bodyError("read body", err))
		return
	}
	resp, err := a.svc.AnalyzeScenario(r.Context(), &AnalyzeScenarioRequest{Scenario: body})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *httpAPI) fadeMargin(w http.ResponseWriter, r *http.Request) {
	var req EstimateFadeMarginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := a.svc.EstimateFadeMargin(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *httpAPI) listPresets(w http.ResponseWriter, r *http.Request) {
	resp, err := a.svc.ListPresets(r.Context(), &ListPresetsRequest{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *httpAPI) getPreset(w http.ResponseWriter, r *http.Request) {
	resp, err := a.svc.GetPreset(r.Context(), &GetPresetRequest{Name: r.PathValue("name")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return bodyError("decode body", err)
	}
	return nil
}

// bodyError reports an oversized body as ResourceExhausted (413) and any
// other read or decode failure as an invalid request.
func bodyError(op string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return status.Errorf(codes.ResourceExhausted, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return ToStatusError(fmt.Errorf("%w: %s: %v", ErrInvalidRequest, op, err))
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	writeJSON(w, HTTPStatus(err), errorBody{Error: st.Message(), Code: st.Code().String()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
