package plugin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"sbl.system/synwork/synwork-processor-excelai/logger"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

const maxBodyBytes = 64 << 20

// methodCall is the body of POST /v1/methods/{method}.
type methodCall struct {
	ContinueOnFail bool                     `json:"continueOnFail"`
	Items          []*schema.Item           `json:"items"`
	Params         []map[string]interface{} `json:"params"`
}

// NewRouter exposes the runner over HTTP:
//
//	GET  /v1/methods           method names and descriptions
//	POST /v1/methods/{method}  run a method, body {continueOnFail, items, params}
//	POST /v1/options/{name}    load dropdown options, body is the parameter map
func NewRouter(r *Runner) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(serveTimeout))

	router.Get("/v1/methods", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, r.Methods())
	})
	router.Post("/v1/methods/{method}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "method")
		if _, err := r.processor.Method(name); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		call := &methodCall{}
		if err := decodeBody(w, req, call); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := r.Call(req.Context(), &Request{
			Method:         name,
			ContinueOnFail: call.ContinueOnFail,
			Items:          call.Items,
			Params:         call.Params,
		})
		if err != nil {
			logger.Logger.Debug("method call rejected", zap.String("method", name),
				zap.String("request_id", middleware.GetReqID(req.Context())), zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
	router.Post("/v1/options/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		if _, err := r.processor.LoadOption(name); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		config := map[string]interface{}{}
		if err := decodeBody(w, req, &config); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		options, err := r.LoadOptions(req.Context(), name, config)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, options)
	})
	return router
}

// decodeBody decodes a JSON body, an empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, req *http.Request, v interface{}) error {
	if req.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(err.Error())})
}
