package db

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/dataset"
	"go.uber.org/zap"
)

// ErrUploadNotFound is returned when an upload id is unknown or has been purged.
var ErrUploadNotFound = errors.New("upload not found")

// UploadInfo describes a stored upload without its content.
type UploadInfo struct {
	ID   string
	Name string
	Time time.Time
	Size int
}

func OpenDB(fileName string) (*sql.DB, error) {
	params := url.Values{
		"_journal_mode": []string{"WAL"},
		"_synchronous":  []string{"NORMAL"},
		"cache_size":    []string{"1000000000"},
		"cache":         []string{"shared"},
		"_busy_timeout": []string{"5000"},
		"_txlock":       []string{"immediate"},
	}
	dataSourceName := fmt.Sprintf("file:%s?%s", fileName, params.Encode())
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Create schema if not exists
	createTableQuery := `
CREATE TABLE IF NOT EXISTS uploads (
	id VARCHAR NOT NULL PRIMARY KEY,
	name VARCHAR NOT NULL,
	time DATETIME default CURRENT_TIMESTAMP,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS uploads_time ON uploads(time);
`
	_, err = db.Exec(createTableQuery)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	return db, nil
}

// SaveUpload stores an uploaded file under its content hash and returns that id.
// Saving the same content again refreshes its name and time.
func SaveUpload(db *sql.DB, upload dataset.Upload, t time.Time) (string, error) {
	id := upload.ID()
	query := `
INSERT INTO uploads (id, name, data, time) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, time = excluded.time`
	_, err := db.Exec(query, id, upload.Name, upload.Content, t.UTC().Format(consts.DateTimeFormat))
	if err != nil {
		return "", fmt.Errorf("saving upload %s: %w", upload.Name, err)
	}
	return id, nil
}

func GetUpload(db *sql.DB, id string) (*dataset.Upload, error) {
	var upload dataset.Upload
	err := db.QueryRow(`SELECT name, data FROM uploads WHERE id = ?`, id).Scan(&upload.Name, &upload.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUploadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", id, err)
	}
	return &upload, nil
}

// ListUploads returns the stored uploads, newest first.
func ListUploads(db *sql.DB) (iter.Seq[UploadInfo], error) {
	rows, err := db.Query(`SELECT id, name, time, length(data) FROM uploads ORDER BY time DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	return func(yield func(UploadInfo) bool) {
		defer rows.Close()
		for rows.Next() {
			var info UploadInfo
			var t string
			if err := rows.Scan(&info.ID, &info.Name, &t, &info.Size); err != nil {
				zap.S().Errorf("Error scanning row: %s", err)
				return
			}
			info.Time, _ = parseTime(t)
			if !yield(info) {
				return
			}
		}
	}, nil
}

// PurgeOldEntries deletes uploads older than retentionDays.
func PurgeOldEntries(db *sql.DB, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(consts.DateTimeFormat)
	cnt, err := db.Exec(`DELETE FROM uploads WHERE time < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	deleted, _ := cnt.RowsAffected()
	zap.S().Infof("Deleted %d old uploads", deleted)
	return deleted, nil
}

// parseTime accepts the formats sqlite may hand back for a DATETIME column.
func parseTime(s string) (t time.Time, err error) {
	for _, format := range []string{consts.DateTimeFormat, time.RFC3339, consts.DateFormat} {
		t, err = time.Parse(format, s)
		if err == nil {
			return t, nil
		}
	}
	return t, fmt.Errorf("could not parse time: %s", s)
}
