package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/htmlwriter"
	"github.com/ginjaninja78/meal-vouchers/internal/xlsxwriter"
)

// exportLine builds a split-name layout line.
func exportLine(room, booking, dni, services string) string {
	fields := make([]string, 19)
	fields[1] = "Hotel Sierra"
	fields[2] = room
	fields[3] = "SINGLE"
	fields[5] = "1"
	fields[6] = booking
	fields[8] = "01/01/2024"
	fields[9] = "03/01/2024"
	fields[12] = dni
	fields[13] = "guest " + dni
	fields[16] = services
	return strings.Join(fields, ",")
}

var sampleExport = "header\n" +
	exportLine("1", "A", "11", "MEDIA PENSION") + "\n" +
	exportLine("2", "B", "22", "PENSION COMPLETA") + "\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(NewRouter(NewHandler(config.Default(), nil)))
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, srv *httptest.Server, name, content string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(srv.URL+"/vouchers", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}

func TestUpload_VeryLongLine(t *testing.T) {
	srv := newTestServer(t)

	long := strings.Split(exportLine("3", "C", "33", "PENSION COMPLETA"), ",")
	long[4] = strings.Repeat("y", 1100*1024)

	resp := upload(t, srv, "export.csv", sampleExport+strings.Join(long, ",")+"\n")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "GUEST 22")
	assert.Contains(t, body, "GUEST 33")
}

func TestIndex_BeforeUpload(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body := readBody(t, resp)
	assert.Contains(t, body, WelcomeMessage)
	assert.Contains(t, body, "Modo actual: PC")
}

func TestUpload_RendersVouchers(t *testing.T) {
	srv := newTestServer(t)

	resp := upload(t, srv, "export.csv", sampleExport)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Equal(t, 1, strings.Count(body, `class="container"`))
	assert.Contains(t, body, "GUEST 22")
	assert.NotContains(t, body, "GUEST 11")
	assert.Contains(t, body, `href="/roster.xlsx"`)

	// The page stays available afterwards.
	index, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer index.Body.Close()
	assert.Contains(t, readBody(t, index), "GUEST 22")
}

func TestUpload_MissingFile(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("other", "x"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(srv.URL+"/vouchers", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_NoEligibleRows(t *testing.T) {
	srv := newTestServer(t)

	resp := upload(t, srv, "export.csv", "header\n"+exportLine("1", "A", "11", "DESAYUNO")+"\n")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), htmlwriter.EmptyMessage)
}

func TestSwitchTier_ReRendersCurrentExport(t *testing.T) {
	srv := newTestServer(t)
	upload(t, srv, "export.csv", sampleExport)

	resp, err := http.PostForm(srv.URL+"/tier", url.Values{"tier": {"MAP"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Modo actual: MAP")
	assert.Contains(t, body, "GUEST 11")
	assert.NotContains(t, body, "GUEST 22")
}

func TestSwitchTier_BeforeUpload(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/tier", url.Values{"tier": {"map"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Modo actual: MAP")
}

func TestSwitchTier_Invalid(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/tier", url.Values{"tier": {"ALL"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoster(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/roster.xlsx")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	upload(t, srv, "export.csv", sampleExport)

	resp, err = http.Get(srv.URL + "/roster.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxwriter.VoucherSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "22", rows[1][3])
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t)
	upload(t, srv, "export.csv", sampleExport)

	resp, err := http.Get(srv.URL + "/api/summary")
	require.NoError(t, err)
	defer resp.Body.Close()

	var summary SummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))

	assert.True(t, summary.Loaded)
	assert.Equal(t, "PC", summary.Tier)
	assert.Equal(t, "export.csv", summary.File)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 1, summary.Eligible)
	require.Len(t, summary.Groups, 1)
	assert.Equal(t, VoucherDTO{
		Room: "2", Booking: "B", Name: "GUEST 22", DNI: "22",
		Occupants: 1, Meals: 4, Nights: 2, Members: 1,
	}, summary.Groups[0])
	assert.Empty(t, summary.Warnings)
}

func TestRouter_LogsRequestsThroughZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := NewRouter(NewHandler(config.Default(), zap.New(core)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roster.xlsx", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/roster.xlsx", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", NewHandler(config.Default(), nil), nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
