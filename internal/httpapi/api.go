// Package httpapi serves recognition over HTTP.
//
//	POST /api/v1/recognize       multipart: image, options (JSON), preset, title, overlay
//	POST /api/v1/recognize/midi  same form plus bpm; answers audio/midi
//	GET  /api/v1/runtime         backend and OCR status
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/ironsheep/score-omr/internal/omr"
	"github.com/ironsheep/score-omr/internal/service"
)

// DefaultMaxUpload bounds the size of a multipart request.
const DefaultMaxUpload = 32 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"detail"`
}

// API routes requests to the recognition service.
type API struct {
	svc       *service.Service
	maxUpload int64
}

// New builds the API around svc.
func New(svc *service.Service) *API {
	return &API{svc: svc, maxUpload: DefaultMaxUpload}
}

// Router returns the routes without CORS handling.
func (a *API) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/recognize", a.handleRecognize).Methods(http.MethodPost)
	v1.HandleFunc("/recognize/midi", a.handleRecognizeMIDI).Methods(http.MethodPost)
	v1.HandleFunc("/runtime", a.handleRuntime).Methods(http.MethodGet)
	return router
}

// Handler returns the routes wrapped for cross-origin browser clients.
func (a *API) Handler(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Recognition-Id"},
	})
	return c.Handler(a.Router())
}

// ListenAndServe serves h on addr until ctx is done, then shuts down.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

type recognizeForm struct {
	img   image.Image
	title string
	opts  omr.Options
	bpm   float64
}

// parseForm reads the multipart upload shared by both recognize routes.
func (a *API) parseForm(w http.ResponseWriter, r *http.Request) (*recognizeForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	if err := r.ParseMultipartForm(a.maxUpload); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("missing image: %w", err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	opts, err := service.ParseOptions(r.FormValue("preset"), []byte(r.FormValue("options")))
	if err != nil {
		return nil, err
	}
	if on, _ := strconv.ParseBool(r.FormValue("overlay")); on {
		opts = opts.WithOverlay(true)
	}

	form := &recognizeForm{img: img, title: strings.TrimSpace(r.FormValue("title")), opts: opts}
	if v := r.FormValue("bpm"); v != "" {
		form.bpm, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bpm %q", v)
		}
	}
	return form, nil
}

func (a *API) recognize(w http.ResponseWriter, r *http.Request) (*service.Recognition, *recognizeForm, bool) {
	form, err := a.parseForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, nil, false
	}
	rec, err := a.svc.RecognizeImage(r.Context(), form.img, form.title, form.opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return nil, nil, false
	}
	return rec, form, true
}

func (a *API) handleRecognize(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := a.recognize(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Recognition-Id", rec.ID)
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleRecognizeMIDI(w http.ResponseWriter, r *http.Request) {
	rec, form, ok := a.recognize(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := service.WriteMIDI(&buf, rec, form.bpm); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.ID+".mid"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Recognition-Id", rec.ID)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("failed to send midi for %s: %v", rec.ID, err)
	}
}

func (a *API) handleRuntime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Status())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
