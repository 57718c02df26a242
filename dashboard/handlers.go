package dashboard

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/db"
	"github.com/mbtiatlas/insights/selection"
	"github.com/mbtiatlas/insights/table"
	"go.uber.org/zap"
)

// DashboardHandler renders the dashboard page. Load failures are shown on the page,
// which keeps its upload form so the user can retry.
func DashboardHandler(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := a.resolve(r)
		if req.Err != nil {
			renderPage(w, req.Status, errorPage(req, userMessage(req.Status, req.Err)))
			return
		}
		renderPage(w, http.StatusOK, buildPage(req))
	}
}

// UploadHandler accepts a CSV in the multipart field "file", checks it loads, stores it
// and redirects to the dashboard showing it.
func UploadHandler(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > consts.MaxUploadBytes {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, consts.MaxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Missing file", http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()

		content, err := io.ReadAll(file)
		if err != nil {
			zap.S().Warnf("Error reading upload: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		upload := dataset.Upload{Name: header.Filename, Content: content}
		if _, err := a.Cache.Get("", &upload); err != nil {
			status := statusFor(err)
			renderPage(w, status, errorPage(request{}, userMessage(status, err)))
			return
		}

		id, err := db.SaveUpload(a.DB, upload, time.Now())
		if err != nil {
			zap.S().Errorf("Error handling request: %s", err.Error())
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		zap.S().Infof("Stored upload %s (%s, %d bytes)", id, upload.Name, len(content))
		http.Redirect(w, r, "/?upload="+id, http.StatusSeeOther)
	}
}

// ExportCSVHandler returns the table of the current selection as a CSV attachment.
func ExportCSVHandler(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := a.resolve(r)
		if req.Err != nil {
			http.Error(w, userMessage(req.Status, req.Err), req.Status)
			return
		}

		selected, err := selection.Apply(req.Dataset.Records, req.Params)
		if err != nil && !errors.Is(err, selection.ErrEmptySelection) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+consts.ExportFileName+`"`)
		if err := table.WriteCSV(w, table.Rows(selected, req.Params.Mode)); err != nil {
			zap.S().Errorf("Error writing CSV export: %v", err)
		}
	}
}

// ChartsJSONHandler serves the exported charts.json from dir.
func ChartsJSONHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, consts.ChartsJSONFile)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "Charts not generated yet", http.StatusNotFound)
			return
		}
		if err != nil {
			zap.S().Errorf("Error reading %s: %v", path, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
}

// APIKeyMiddleware requires key as a bearer token or api_key query parameter.
// An empty key disables the check.
func APIKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			given := r.URL.Query().Get(consts.APIKeyQueryParam)
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, consts.AuthHeaderPrefix) {
				given = strings.TrimPrefix(auth, consts.AuthHeaderPrefix)
			}
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
