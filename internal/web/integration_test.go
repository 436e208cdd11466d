package web_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/plantcare/internal/advisor"
	"github.com/vbonduro/plantcare/internal/db"
	"github.com/vbonduro/plantcare/internal/domain"
	"github.com/vbonduro/plantcare/internal/portability"
	"github.com/vbonduro/plantcare/internal/repository"
	"github.com/vbonduro/plantcare/internal/service"
	"github.com/vbonduro/plantcare/internal/store"
	"github.com/vbonduro/plantcare/internal/web"
)

var testNow = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

type stubTaxonomy struct{}

func (stubTaxonomy) SuggestTaxonomy(_ context.Context, name string) ([]advisor.Taxon, error) {
	return []advisor.Taxon{{Family: "Moraceae", Genus: "Ficus", Species: "lyrata", Name: name}}, nil
}

// newTestServer sets up a real web.Server backed by in-memory SQLite.
func newTestServer(t *testing.T, advisors service.Advisors) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	settings := store.NewSettingsStore(database)
	repo := repository.New(
		store.NewPlantStore(database),
		store.NewFileStore(database, slog.Default()),
		settings,
		slog.Default(),
		repository.WithClock(func() time.Time { return testNow }),
	)
	svc := service.NewPlantService(repo, settings, advisors, false, slog.Default())
	srv := httptest.NewServer(web.NewServer(svc, portability.New(repo, slog.Default()), slog.Default()))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func createPlant(t *testing.T, srv *httptest.Server, p domain.Plant) domain.Plant {
	t.Helper()
	resp, b := do(t, http.MethodPost, srv.URL+"/plants", p)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	return decode[domain.Plant](t, b)
}

// buildMultipartBody creates a multipart/form-data body with an "image" field
// and a "note" field.
func buildMultipartBody(t *testing.T, imageData []byte, note string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if imageData != nil {
		fw, err := w.CreateFormFile("image", "photo.jpg")
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("note", note))
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestIntegration_PlantLifecycle(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})

	p := createPlant(t, srv, domain.Plant{Name: "Monstera", IntervalDays: 7, LastWatered: "2024-06-01"})
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "2024-06-08", p.NextDue)

	resp, b := do(t, http.MethodGet, srv.URL+"/plants", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sums := decode[[]service.PlantSummary](t, b)
	require.Len(t, sums, 1)
	assert.Equal(t, "7 days overdue", sums[0].Human)

	resp, b = do(t, http.MethodPost, srv.URL+"/plants/"+p.ID+"/water", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	watered := decode[domain.Plant](t, b)
	assert.Equal(t, "2024-06-15", watered.LastWatered)
	assert.Equal(t, "2024-06-22", watered.NextDue)

	p.Name = "Swiss cheese plant"
	resp, b = do(t, http.MethodPut, srv.URL+"/plants/"+p.ID, p)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Swiss cheese plant", decode[domain.Plant](t, b).Name)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/plants/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, b = do(t, http.MethodGet, srv.URL+"/plants/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(b), "not found")
}

func TestIntegration_CreatePlantRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/plants", strings.NewReader("{"))
	require.NoError(t, err)
	resp, _ := send(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/plants", domain.Plant{Name: strings.Repeat("x", 201)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_Tasks(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})
	p := createPlant(t, srv, domain.Plant{Name: "Fern", LastWatered: "2024-06-10"})
	base := srv.URL + "/plants/" + p.ID + "/tasks"

	resp, b := do(t, http.MethodPost, base, domain.Task{Type: "fertilize", EveryDays: 14})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	assert.Equal(t, "2024-06-24", decode[domain.Plant](t, b).Tasks[0].NextDue)

	resp, b = do(t, http.MethodPost, base+"/0/done", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-06-29", decode[domain.Plant](t, b).Tasks[0].NextDue)

	resp, _ = do(t, http.MethodPost, base+"/5/done", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, base+"/abc/done", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, base, domain.Task{Type: "repot"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, b = do(t, http.MethodPut, base+"/0", domain.Task{Type: "mist", EveryDays: 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mist", decode[domain.Plant](t, b).Tasks[0].Type)

	resp, _ = do(t, http.MethodGet, srv.URL+"/agenda", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, b = do(t, http.MethodDelete, base+"/0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[domain.Plant](t, b).Tasks)
}

func TestIntegration_ObservationsAndFiles(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})
	p := createPlant(t, srv, domain.Plant{Name: "Fern"})
	url := srv.URL + "/plants/" + p.ID + "/observations"

	body, contentType := buildMultipartBody(t, minimalJPEG, "first photo")
	req, err := http.NewRequest(http.MethodPost, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	resp, b := send(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))

	var created struct {
		Plant       domain.Plant       `json:"plant"`
		Observation domain.Observation `json:"observation"`
	}
	require.NoError(t, json.Unmarshal(b, &created))
	assert.Equal(t, domain.ObservationPhoto, created.Observation.Type)
	assert.Equal(t, "first photo", created.Observation.Note)
	assert.Equal(t, created.Observation.FileID, created.Plant.CoverFileID)

	resp, b = do(t, http.MethodGet, srv.URL+"/files/"+created.Observation.FileID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, minimalJPEG, b)

	resp, _ = do(t, http.MethodGet, srv.URL+"/files/file-missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, url, map[string]string{"note": "looks thirsty"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body, contentType = buildMultipartBody(t, []byte("%PDF-1.4"), "")
	req, err = http.NewRequest(http.MethodPost, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	resp, _ = send(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, url, map[string]string{"note": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, b = do(t, http.MethodPut, srv.URL+"/plants/"+p.ID+"/cover", map[string]string{"observationId": ""})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[domain.Plant](t, b).CoverFileID)
}

func TestIntegration_Weather(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})
	p := createPlant(t, srv, domain.Plant{Name: "Fern", IntervalDays: 10, LastWatered: "2024-06-15"})
	url := srv.URL + "/plants/" + p.ID + "/weather"

	resp, b := do(t, http.MethodPut, url, map[string]float64{"tempC": 5, "rh": 100})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-06-27", decode[domain.Plant](t, b).NextDue)

	resp, _ = do(t, http.MethodPut, url, map[string]float64{"tempC": 5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, b = do(t, http.MethodPost, url+"/refresh?lat=45&lon=-73", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `"available":false`)

	resp, _ = do(t, http.MethodPost, url+"/refresh?lat=200&lon=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, b = do(t, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[domain.Plant](t, b).WeatherOverride)
}

func TestIntegration_Settings(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})

	resp, b := do(t, http.MethodGet, srv.URL+"/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DefaultSettings(), decode[domain.Settings](t, b))

	resp, b = do(t, http.MethodPut, srv.URL+"/settings", map[string]any{"season": "dormant", "unknown": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.SeasonDormant, decode[domain.Settings](t, b).Season)

	_, b = do(t, http.MethodGet, srv.URL+"/settings", nil)
	assert.Equal(t, domain.SeasonDormant, decode[domain.Settings](t, b).Season)
}

func TestIntegration_ExportImport(t *testing.T) {
	src := newTestServer(t, service.Advisors{})
	p := createPlant(t, src, domain.Plant{Name: "Fern"})
	body, contentType := buildMultipartBody(t, minimalJPEG, "")
	req, err := http.NewRequest(http.MethodPost, src.URL+"/plants/"+p.ID+"/observations", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	resp, _ := send(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, snapshot := do(t, http.MethodGet, src.URL+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "plants-2024-06-15.json")
	assert.Contains(t, string(snapshot), "data:image/jpeg;base64,")

	dst := newTestServer(t, service.Advisors{})
	req, err = http.NewRequest(http.MethodPost, dst.URL+"/import", bytes.NewReader(snapshot))
	require.NoError(t, err)
	resp, b := send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	assert.Equal(t, portability.ImportStats{Plants: 1, Photos: 1}, decode[portability.ImportStats](t, b))

	_, b = do(t, http.MethodGet, dst.URL+"/plants/"+p.ID, nil)
	imported := decode[domain.Plant](t, b)
	require.Len(t, imported.Observations, 1)
	resp, data := do(t, http.MethodGet, dst.URL+"/files/"+imported.Observations[0].FileID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, minimalJPEG, data)

	req, err = http.NewRequest(http.MethodPost, dst.URL+"/import", strings.NewReader(`{"plants":{}}`))
	require.NoError(t, err)
	resp, _ = send(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_Calendar(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})
	p := createPlant(t, srv, domain.Plant{Name: "Fern", IntervalDays: 7, LastWatered: "2024-06-10"})

	resp, b := do(t, http.MethodGet, srv.URL+"/calendar.ics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(b), "UID:"+p.ID+"-water@plant-tracker\r\n")
}

func TestIntegration_Advisors(t *testing.T) {
	srv := newTestServer(t, service.Advisors{Taxonomy: stubTaxonomy{}})

	resp, b := do(t, http.MethodGet, srv.URL+"/suggest?q=fiddle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	taxa := decode[[]advisor.Taxon](t, b)
	require.Len(t, taxa, 1)
	assert.Equal(t, "Ficus", taxa[0].Genus)

	resp, b = do(t, http.MethodPost, srv.URL+"/plan", advisor.CarePlanRequest{Name: "Fern"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"available":false}`, string(b))

	p := createPlant(t, srv, domain.Plant{Name: "Fern", IntervalDays: 4})
	resp, b = do(t, http.MethodPost, srv.URL+"/plants/"+p.ID+"/plan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `"available":false`)
}

func TestIntegration_Demo(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})

	resp, b := do(t, http.MethodPost, srv.URL+"/demo", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decode[[]domain.Plant](t, b), 5)

	_, b = do(t, http.MethodGet, srv.URL+"/plants", nil)
	assert.Len(t, decode[[]service.PlantSummary](t, b), 5)
}

func TestIntegration_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t, service.Advisors{})
	resp, _ := do(t, http.MethodGet, srv.URL+"/settings", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}
