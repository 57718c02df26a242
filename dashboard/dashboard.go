// Package dashboard serves the interactive MBTI dashboard: the chart page, uploads,
// the CSV export and the exported chart configurations.
package dashboard

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"

	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/db"
	"github.com/mbtiatlas/insights/selection"
	"go.uber.org/zap"
)

// App holds what the handlers share. The dataset cache is the only mutable state.
type App struct {
	DB          *sql.DB
	Cache       *dataset.Cache
	DefaultFile string
	TopN        int
}

// request is the outcome of resolving a dashboard-style request: the dataset and the
// user's choices, or the error and status to answer with.
type request struct {
	Dataset  *dataset.Dataset
	Params   selection.Params
	UploadID string
	Status   int
	Err      error
}

func (a *App) resolve(r *http.Request) request {
	q := r.URL.Query()
	req := request{UploadID: q.Get("upload"), Status: http.StatusOK}

	var upload *dataset.Upload
	if req.UploadID != "" {
		u, err := db.GetUpload(a.DB, req.UploadID)
		if err != nil {
			req.Status, req.Err = statusFor(err), err
			return req
		}
		upload = u
	}

	ds, err := a.Cache.Get(a.DefaultFile, upload)
	if err != nil {
		req.Status, req.Err = statusFor(err), err
		return req
	}
	req.Dataset = ds

	req.Params, err = ParseParams(q, ds.Types, a.TopN)
	if err != nil {
		req.Status, req.Err = statusFor(err), err
		// the error page still offers the controls, set to a first visit
		req.Params, _ = ParseParams(url.Values{}, ds.Types, a.TopN)
	}
	return req
}

// statusFor maps load and request errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case dataset.IsNoDataSource(err), errors.Is(err, db.ErrUploadNotFound):
		return http.StatusNotFound
	case dataset.IsDataError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBadParams):
		return http.StatusBadRequest
	default:
		zap.S().Errorf("Error handling request: %v", err)
		return http.StatusInternalServerError
	}
}

// userMessage hides internal failures behind a generic message.
func userMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "Failed to load data"
	}
	return err.Error()
}
