package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/wifimap/internal/api"
	"github.com/persistorai/wifimap/internal/models"
)

func newImportRouter(imp *mockImportService, exp *mockExportService, maxBytes int64) *gin.Engine {
	h := api.NewImportHandler(imp, exp, testLogger(), maxBytes)
	r := gin.New()
	r.POST("/import", h.Import)
	r.GET("/export", h.Export)

	return r
}

func echoImporter(got *[]byte) *mockImportService {
	return &mockImportService{
		importFn: func(_ context.Context, blob []byte, _ string) (*models.ImportResult, error) {
			*got = blob
			return &models.ImportResult{Schema: "snapshot", Added: 2}, nil
		},
	}
}

func TestImport_RawBody(t *testing.T) {
	t.Parallel()

	var got []byte
	r := newImportRouter(echoImporter(&got), nil, 1024)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("sqlite-bytes"))
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if string(got) != "sqlite-bytes" {
		t.Errorf("service got %q", got)
	}

	var result models.ImportResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Added != 2 || result.Schema != "snapshot" {
		t.Errorf("result = %+v", result)
	}
}

func TestImport_Multipart(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "backup.sqlite")
	if err != nil {
		t.Fatal(err)
	}

	fw.Write([]byte("multipart-bytes")) //nolint:errcheck // bytes.Buffer never fails.
	mw.Close()

	var got []byte
	r := newImportRouter(echoImporter(&got), nil, 1024)

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if string(got) != "multipart-bytes" {
		t.Errorf("service got %q", got)
	}
}

func TestImport_RequestErrors(t *testing.T) {
	t.Parallel()

	never := &mockImportService{
		importFn: func(_ context.Context, _ []byte, _ string) (*models.ImportResult, error) {
			t.Error("service must not be called")
			return nil, nil
		},
	}

	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    int
	}{
		{"empty body", "application/octet-stream", "", http.StatusBadRequest},
		{"too large", "application/octet-stream", strings.Repeat("x", 64), http.StatusRequestEntityTooLarge},
		{"multipart without file", "multipart/form-data; boundary=xyz", "--xyz--\r\n", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newImportRouter(never, nil, 32)

			req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestImport_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"malformed", &models.MalformedInputError{Reason: "not an sqlite database"}, http.StatusBadRequest, api.ErrCodeMalformedInput},
		{"busy", fmt.Errorf("%w: %w", models.ErrImportBusy, context.DeadlineExceeded), http.StatusServiceUnavailable, api.ErrCodeImportBusy},
		{"transaction", &models.TransactionError{Op: "commit", Err: errors.New("disk full")}, http.StatusInternalServerError, api.ErrCodeTransactionFailed},
		{"other", errors.New("boom"), http.StatusInternalServerError, api.ErrCodeInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			imp := &mockImportService{
				importFn: func(_ context.Context, _ []byte, _ string) (*models.ImportResult, error) {
					return nil, tc.err
				},
			}
			r := newImportRouter(imp, nil, 1024)

			w := doRequest(r, http.MethodPost, "/import", "data")
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, w.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if body["code"] != tc.wantErr {
				t.Errorf("code = %q, want %q", body["code"], tc.wantErr)
			}
		})
	}
}

func TestExport_Attachment(t *testing.T) {
	t.Parallel()

	exp := &mockExportService{
		exportFn: func(_ context.Context) ([]byte, error) { return []byte("SQLite format 3\x00"), nil },
	}
	r := newImportRouter(nil, exp, 1024)

	w := doRequest(r, http.MethodGet, "/export", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename=wifimap-export-") || !strings.HasSuffix(cd, ".sqlite") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	if w.Body.String() != "SQLite format 3\x00" {
		t.Errorf("body = %q", w.Body.String())
	}
}
