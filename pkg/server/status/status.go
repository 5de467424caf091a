// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package status serves the HTTP status endpoints of a node: the active
// session history, the node's metrics and its settings.
package status

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cockroachdb/ash/pkg/obs/ash"
	"github.com/cockroachdb/ash/pkg/settings"
	"github.com/cockroachdb/ash/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/ash/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/ash/pkg/sql/vtable"
	"github.com/cockroachdb/ash/pkg/util/iterutil"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/metric"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const statusPrefix = "/_status/"

// defaultVersion is the table version served when the request names none.
const defaultVersion = 3

func writeJSONResponse(ctx context.Context, w http.ResponseWriter, code int, payload interface{}) {
	res, err := json.Marshal(payload)
	if err != nil {
		log.Errorf(ctx, "encoding status response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(res); err != nil {
		log.VEventf(ctx, 2, "writing status response: %v", err)
	}
}

// writeError maps err to an HTTP status through its pg code.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch pgerror.GetPGCode(err) {
	case pgcode.ObjectNotInPrerequisiteState:
		code = http.StatusServiceUnavailable
	case pgcode.FeatureNotSupported, pgcode.InvalidParameterValue:
		code = http.StatusBadRequest
	default:
		log.Warningf(ctx, "status request failed: %v", err)
	}
	http.Error(w, err.Error(), code)
}

// Server implements the endpoints under /_status/.
type Server struct {
	ash *ash.ActiveSessionHistory
	sv  *settings.Values
	mux *mux.Router
}

// NewServer creates a status server. The metrics of registry are served
// under /_status/vars.
func NewServer(
	a *ash.ActiveSessionHistory, sv *settings.Values, registry *metric.Registry,
) (*Server, error) {
	promRegistry := prometheus.NewRegistry()
	if err := promRegistry.Register(registry); err != nil {
		return nil, err
	}
	s := &Server{ash: a, sv: sv, mux: mux.NewRouter()}
	s.registerRoutes(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	return s, nil
}

func (s *Server) registerRoutes(vars http.Handler) {
	routeDefinitions := []struct {
		endpoint string
		handler  http.Handler
	}{
		{"active_session_history", http.HandlerFunc(s.activeSessionHistory)},
		{"active_session_history/schema", http.HandlerFunc(s.activeSessionHistorySchema)},
		{"settings", http.HandlerFunc(s.settings)},
		{"vars", vars},
	}
	for _, route := range routeDefinitions {
		s.mux.Handle(statusPrefix+route.endpoint, route.handler).Methods("GET")
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// versionColumns parses the version query parameter into the number of
// columns of that version of the table.
func versionColumns(r *http.Request) (version int, numCols int, _ error) {
	version = defaultVersion
	if v := r.URL.Query().Get("version"); v != "" {
		var err error
		if version, err = strconv.Atoi(v); err != nil {
			return 0, 0, pgerror.Newf(pgcode.InvalidParameterValue, "invalid version %q", v)
		}
	}
	// Versions start at 1 with ColumnsV1 columns and add one column each.
	return version, ash.ColumnsV1 + version - 1, nil
}

// ActiveSessionHistoryResponse is the body of
// GET /_status/active_session_history.
type ActiveSessionHistoryResponse struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	// Truncated is set if the limit cut the result short.
	Truncated bool `json:"truncated,omitempty"`
}

// jsonRows collects rows keyed by column name.
type jsonRows struct {
	columns []string
	limit   int
	res     *ActiveSessionHistoryResponse
}

var _ ash.RowContainer = (*jsonRows)(nil)

func (j *jsonRows) NumColumns() int { return len(j.columns) }

func (j *jsonRows) AddRow(_ context.Context, row []interface{}) error {
	if j.limit > 0 && len(j.res.Rows) == j.limit {
		j.res.Truncated = true
		return iterutil.StopIteration()
	}
	m := make(map[string]interface{}, len(row))
	for i, d := range row {
		m[j.columns[i]] = d
	}
	j.res.Rows = append(j.res.Rows, m)
	return nil
}

// activeSessionHistory returns the buffered samples, oldest first.
//
// Query parameters:
//
//	version  the table version, 1 to 3 (default 3)
//	limit    the maximum number of rows returned (default unlimited)
func (s *Server) activeSessionHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, numCols, err := versionColumns(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	columns, err := ash.ColumnNames(numCols)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	rows := &jsonRows{columns: columns, res: &ActiveSessionHistoryResponse{
		Columns: columns,
		Rows:    []map[string]interface{}{},
	}}
	if l := r.URL.Query().Get("limit"); l != "" {
		if rows.limit, err = strconv.Atoi(l); err != nil || rows.limit < 0 {
			writeError(ctx, w, pgerror.Newf(pgcode.InvalidParameterValue, "invalid limit %q", l))
			return
		}
	}
	if err := s.ash.ScanToRows(ctx, rows); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSONResponse(ctx, w, http.StatusOK, rows.res)
}

// activeSessionHistorySchema returns the CREATE TABLE statement of the
// requested version of the table.
func (s *Server) activeSessionHistorySchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	version, _, err := versionColumns(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	schema, ok := vtable.CrdbInternalActiveSessionHistory(version)
	if !ok {
		writeError(ctx, w, pgerror.Newf(pgcode.FeatureNotSupported,
			"unknown active session history version %d", version))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(schema))
}

// settings returns the current value of every setting.
func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	res := make(map[string]string)
	for _, key := range settings.Keys() {
		setting, ok := settings.Lookup(key)
		if !ok {
			continue
		}
		res[key] = setting.String(s.sv)
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, res)
}
