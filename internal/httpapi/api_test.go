package httpapi

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/score-omr/internal/omr"
	"github.com/ironsheep/score-omr/internal/omr/omrtest"
	"github.com/ironsheep/score-omr/internal/score"
	"github.com/ironsheep/score-omr/internal/service"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	proc, err := omr.NewProcessor(omr.NewRuntime(nil))
	require.NoError(t, err)
	return New(service.New(proc, nil))
}

// newUpload builds a multipart request with the synthetic score page and
// the given extra fields.
func newUpload(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("image", "page.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(fw, omrtest.ScorePage(omrtest.Ascending)))
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRecognize(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, newUpload(t, "/api/v1/recognize", map[string]string{
		"title":   "Scale",
		"options": `{"threshold_offset": 7}`,
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		ID        string            `json:"id"`
		Title     string            `json:"title"`
		Notes     []score.NoteEvent `json:"notes"`
		StaffRows int               `json:"staff_rows"`
		Mode      string            `json:"mode"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, got.ID, rec.Header().Get("X-Recognition-Id"))
	assert.Equal(t, "Scale", got.Title)
	assert.Equal(t, 1, got.StaffRows)
	assert.Equal(t, omr.ModeFallback, got.Mode)
	assert.GreaterOrEqual(t, score.LCSRatio(score.Pitches(got.Notes), omrtest.AscendingPitches), 0.6)
}

func TestRecognize_Overlay(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, newUpload(t, "/api/v1/recognize", map[string]string{
		"overlay": "true",
		"preset":  "photo",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Overlay *struct {
			Width    int    `json:"width"`
			MimeType string `json:"mime_type"`
		} `json:"overlay"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.NotNil(t, got.Overlay)
	assert.Equal(t, 600, got.Overlay.Width)
	assert.Equal(t, "image/png", got.Overlay.MimeType)
}

func TestRecognize_BadRequests(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{"not multipart", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/v1/recognize", bytes.NewBufferString("{}"))
		}},
		{"missing image", func() *http.Request {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			mw.WriteField("title", "x")
			mw.Close()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			return req
		}},
		{"not an image", func() *http.Request {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			fw, _ := mw.CreateFormFile("image", "page.png")
			fw.Write([]byte("definitely not a png"))
			mw.Close()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			return req
		}},
		{"bad options", func() *http.Request {
			return newUpload(t, "/api/v1/recognize", map[string]string{"options": "{"})
		}},
		{"unknown preset", func() *http.Request {
			return newUpload(t, "/api/v1/recognize", map[string]string{"preset": "fax"})
		}},
		{"bad bpm", func() *http.Request {
			return newUpload(t, "/api/v1/recognize/midi", map[string]string{"bpm": "fast"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.Router().ServeHTTP(rec, tt.req())

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRecognizeMIDI(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, newUpload(t, "/api/v1/recognize/midi", map[string]string{"bpm": "120"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/midi", rec.Header().Get("Content-Type"))
	id := rec.Header().Get("X-Recognition-Id")
	require.NotEmpty(t, id)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id+".mid")

	keys, err := score.ReadMIDINoteOns(rec.Body)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score.LCSRatio(keys, omrtest.AscendingKeys), 0.6)
}

func TestRuntime(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runtime", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got service.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, omr.NativeDisabled.String(), got.Runtime.State)
	assert.NotEmpty(t, got.OCR.Backend)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recognize", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/runtime", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CORS(t *testing.T) {
	api := newTestAPI(t)
	h := api.Handler([]string{"https://scores.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recognize", nil)
	req.Header.Set("Origin", "https://scores.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://scores.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/runtime", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
