package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glekoz/grayscale_image/internal/models"
)

type fakeApp struct {
	batches map[string]models.BatchState
	submits int
}

func newFakeApp() *fakeApp {
	return &fakeApp{batches: make(map[string]models.BatchState)}
}

func (f *fakeApp) CreateBatch(ctx context.Context, service string, maxCount int) (string, error) {
	id := "0b7a1a9c-9f3e-4a38-9c6a-6a1a2b3c4d5e"
	f.batches[service+"/"+id] = models.BatchState{Service: service, BatchID: id, Status: models.BatchStatusFree, MaxCount: maxCount}
	return id, nil
}

func (f *fakeApp) Submit(ctx context.Context, service, batchID, ext string, img []byte) (string, error) {
	if _, ok := f.batches[service+"/"+batchID]; !ok {
		return "", models.ErrNotFound
	}
	f.submits++
	return "img-1", nil
}

func (f *fakeApp) BatchState(ctx context.Context, service, batchID string) (models.BatchState, error) {
	b, ok := f.batches[service+"/"+batchID]
	if !ok {
		return models.BatchState{}, models.ErrNotFound
	}
	return b, nil
}

func (f *fakeApp) BatchImages(ctx context.Context, service, batchID string) ([]models.BatchImage, error) {
	return nil, models.ErrNotFound
}

func testServer() (*Server, *fakeApp) {
	app := newFakeApp()
	return NewServer(0, app, slog.New(slog.DiscardHandler)), app
}

func pngUpload(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(pngBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestCreateBatch(t *testing.T) {
	srv, _ := testServer()
	req := httptest.NewRequest("POST", "/batches", strings.NewReader(`{"service":"shop","max_count":5}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["batch_id"] == "" {
		t.Fatal("no batch_id in response")
	}
}

func TestCreateBatchValidation(t *testing.T) {
	srv, _ := testServer()
	for _, body := range []string{
		`{"service":"","max_count":5}`,
		`{"service":"shop","max_count":0}`,
		`{"service":"SHOP","max_count":5}`, // service names are lowercase
		`not json`,
	} {
		req := httptest.NewRequest("POST", "/batches", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, rec.Code)
		}
	}
}

func TestUploadImage(t *testing.T) {
	srv, app := testServer()
	batchID, _ := app.CreateBatch(context.Background(), "shop", 5)

	body, contentType := pngUpload(t, "image", "cat.png")
	req := httptest.NewRequest("POST", "/batches/"+batchID+"/images?service=shop", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
	if app.submits != 1 {
		t.Fatalf("submits = %d, want 1", app.submits)
	}
}

func TestUploadImageBadFilename(t *testing.T) {
	srv, app := testServer()
	batchID, _ := app.CreateBatch(context.Background(), "shop", 5)

	body, contentType := pngUpload(t, "image", "cat.exe")
	req := httptest.NewRequest("POST", "/batches/"+batchID+"/images?service=shop", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status %d, want 415", rec.Code)
	}
	if app.submits != 0 {
		t.Fatal("bad filename reached the app")
	}
}

func TestUploadImageUnknownBatch(t *testing.T) {
	srv, _ := testServer()
	body, contentType := pngUpload(t, "image", "cat.png")
	req := httptest.NewRequest("POST", "/batches/11111111-2222-4333-8444-555555555555/images?service=shop", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestBatchState(t *testing.T) {
	srv, app := testServer()
	batchID, _ := app.CreateBatch(context.Background(), "shop", 5)

	req := httptest.NewRequest("GET", "/batches/"+batchID+"?service=shop", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		BatchID string `json:"batch_id"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.BatchID != batchID || resp.Status != models.BatchStatusFree {
		t.Fatalf("unexpected state %+v", resp)
	}
}

func TestBatchStateMissingService(t *testing.T) {
	srv, _ := testServer()
	req := httptest.NewRequest("GET", "/batches/whatever", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}
