package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/wifimap/internal/api"
	"github.com/persistorai/wifimap/internal/models"
)

func newNoteRouter(svc *mockNoteService) *gin.Engine {
	h := api.NewNoteHandler(svc, testLogger())
	r := gin.New()
	r.GET("/notes/:identity", h.Get)
	r.PUT("/notes/:identity", h.Put)

	return r
}

func TestNotePut(t *testing.T) {
	t.Parallel()

	var gotIdentity string
	var gotText *string

	svc := &mockNoteService{
		setFn: func(_ context.Context, identity string, text *string) (*models.Note, error) {
			gotIdentity, gotText = identity, text

			note := ""
			if text != nil {
				note = *text
			}

			return &models.Note{Identity: identity, Note: note, Timestamp: ptr(int64(1700000000000))}, nil
		},
	}

	w := doRequest(newNoteRouter(svc), http.MethodPut, "/notes/aa:bb:cc:00:00:01", `{"note":"Office AP"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if gotIdentity != "aa:bb:cc:00:00:01" || gotText == nil || *gotText != "Office AP" {
		t.Errorf("service got identity=%q text=%v", gotIdentity, gotText)
	}

	var note models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if note.Note != "Office AP" || note.Timestamp == nil {
		t.Errorf("note = %+v", note)
	}
}

func TestNotePut_NullNote(t *testing.T) {
	t.Parallel()

	called := false
	svc := &mockNoteService{
		setFn: func(_ context.Context, identity string, text *string) (*models.Note, error) {
			called = true
			if text != nil {
				t.Errorf("text = %q, want nil", *text)
			}

			return &models.Note{Identity: identity, Timestamp: ptr(int64(1))}, nil
		},
	}

	w := doRequest(newNoteRouter(svc), http.MethodPut, "/notes/HomeNet", `{"note":null}`)
	if w.Code != http.StatusOK || !called {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestNotePut_Errors(t *testing.T) {
	t.Parallel()

	svc := &mockNoteService{
		setFn: func(_ context.Context, identity string, text *string) (*models.Note, error) {
			switch {
			case identity == "unknown":
				return nil, models.ErrNetworkNotFound
			case text != nil && len(*text) > models.MaxNoteLength:
				return nil, &models.ValidationError{Field: "note", Message: "too long"}
			}

			return &models.Note{Identity: identity}, nil
		},
	}
	r := newNoteRouter(svc)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{"bad json", "/notes/HomeNet", `{"note":`, http.StatusBadRequest},
		{"unknown network", "/notes/unknown", `{"note":"x"}`, http.StatusNotFound},
		{"too long", "/notes/HomeNet", `{"note":"` + strings.Repeat("x", models.MaxNoteLength+1) + `"}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := doRequest(r, http.MethodPut, tc.path, tc.body)
			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestNoteGet(t *testing.T) {
	t.Parallel()

	svc := &mockNoteService{
		getFn: func(_ context.Context, identity string) (*models.Note, error) {
			if identity == "HomeNet" {
				return &models.Note{Identity: identity, Note: "Office AP", Timestamp: ptr(int64(5))}, nil
			}

			return nil, models.ErrNoteNotFound
		},
	}
	r := newNoteRouter(svc)

	w := doRequest(r, http.MethodGet, "/notes/HomeNet", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var note models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if note.Note != "Office AP" || *note.Timestamp != 5 {
		t.Errorf("note = %+v", note)
	}

	if w := doRequest(r, http.MethodGet, "/notes/Other", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing note: expected 404, got %d", w.Code)
	}
}
