package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reactionlens/internal/config"
	"reactionlens/internal/events"
	"reactionlens/internal/testsupport"
)

func newTestServer(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	cfg := &config.Config{
		Environment:       config.Test,
		MaxUploadSizeInMb: 50,
		ForecastDays:      7,
		LeaderboardSize:   20,
		RecentEvents:      100,
	}
	db := testsupport.SetupTestDB(t)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	srv := NewServer(cfg, testsupport.GetLogger(), db)
	srv.RegisterRoutes(app)
	return app, db
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

const sampleCSV = "user id,reaction,date\n" +
	"a,🤯,2024-03-01 09:00\n" +
	"b,😴,2024-03-01 12:00\n" +
	"a,🤔,2024-03-02 10:00\n" +
	"not-a-reaction-row,meh,2024-03-02 11:00\n"

func createSampleDataset(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, err := app.Test(uploadRequest(t, "sample.csv", sampleCSV), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload struct {
		Dataset events.Dataset `json:"dataset"`
		Report  events.Report  `json:"report"`
	}
	decodeJSON(t, resp, &payload)
	require.NotEmpty(t, payload.Dataset.PublicID)
	return payload.Dataset.PublicID
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthStatus
	decodeJSON(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DBStatus)
}

func TestCreateDataset(t *testing.T) {
	app, _ := newTestServer(t)

	resp, err := app.Test(uploadRequest(t, "q3_survey-results.csv", sampleCSV), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload struct {
		Dataset events.Dataset `json:"dataset"`
		Report  events.Report  `json:"report"`
	}
	decodeJSON(t, resp, &payload)
	assert.Equal(t, "Q3 Survey Results", payload.Dataset.Name)
	assert.Equal(t, "2024-03-01", payload.Dataset.FirstDay)
	assert.Equal(t, "2024-03-02", payload.Dataset.LastDay)
	assert.Equal(t, 3, payload.Report.KeptRows)
	assert.Equal(t, 1, payload.Report.DroppedRows)
}

func TestCreateDatasetMissingFile(t *testing.T) {
	app, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	decodeJSON(t, resp, &payload)
	assert.Equal(t, "MISSING_FILE", payload["code"])
}

func TestCreateDatasetEmptyCSV(t *testing.T) {
	app, _ := newTestServer(t)

	resp, err := app.Test(uploadRequest(t, "empty.csv", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	decodeJSON(t, resp, &payload)
	assert.Equal(t, "INVALID_CSV", payload["code"])
}

func TestCreateDatasetNoReactions(t *testing.T) {
	app, _ := newTestServer(t)

	csv := "user id,reaction,date\na,meh,2024-03-01\n"
	resp, err := app.Test(uploadRequest(t, "bad.csv", csv), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	decodeJSON(t, resp, &payload)
	assert.Equal(t, "INVALID_DATA", payload["code"])
	assert.Contains(t, payload["error"], "no valid emoji reactions")
}

func TestListDatasets(t *testing.T) {
	app, _ := newTestServer(t)
	createSampleDataset(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/datasets", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Datasets []events.Dataset `json:"datasets"`
	}
	decodeJSON(t, resp, &payload)
	assert.Len(t, payload.Datasets, 1)
}

func TestDeleteDataset(t *testing.T) {
	app, _ := newTestServer(t)
	publicID := createSampleDataset(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/datasets/"+publicID, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/datasets/"+publicID, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload map[string]string
	decodeJSON(t, resp, &payload)
	assert.Equal(t, "DATASET_NOT_FOUND", payload["code"])
}

func TestDashboard(t *testing.T) {
	app, _ := newTestServer(t)
	publicID := createSampleDataset(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/datasets/%s/dashboard", publicID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload DashboardResponse
	decodeJSON(t, resp, &payload)
	require.NotNil(t, payload.Dataset)
	require.NotNil(t, payload.Result)
	assert.Equal(t, publicID, payload.Dataset.PublicID)
	assert.Equal(t, 3, payload.Result.TotalEvents)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, payload.Result.Days)

	// "a" reacted twice, so the raw-SQL leaderboard picks them up.
	require.Len(t, payload.Leaderboard, 1)
	assert.Equal(t, "a", payload.Leaderboard[0].UserID)
	assert.Len(t, payload.Recent, 3)
}

func TestDashboardNotFound(t *testing.T) {
	app, _ := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/datasets/nope/dashboard", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardRecomputesAfterCacheLoss(t *testing.T) {
	app, db := newTestServer(t)
	publicID := createSampleDataset(t, app)

	// Simulate a restart: same database, fresh server with an empty cache.
	cfg := &config.Config{
		Environment:       config.Test,
		MaxUploadSizeInMb: 50,
		ForecastDays:      7,
		LeaderboardSize:   20,
		RecentEvents:      100,
	}
	fresh := fiber.New(fiber.Config{DisableStartupMessage: true})
	NewServer(cfg, testsupport.GetLogger(), db).RegisterRoutes(fresh)

	resp, err := fresh.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/datasets/%s/dashboard", publicID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload DashboardResponse
	decodeJSON(t, resp, &payload)
	require.NotNil(t, payload.Result)
	assert.Equal(t, 3, payload.Result.TotalEvents)
}

func TestExportJSON(t *testing.T) {
	app, _ := newTestServer(t)
	publicID := createSampleDataset(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/datasets/%s/export/json", publicID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), publicID+".json")
}

func TestExportDaysCSV(t *testing.T) {
	app, _ := newTestServer(t)
	publicID := createSampleDataset(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/datasets/%s/export/days.csv", publicID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3, "header plus two days")
	assert.Equal(t, "day,total,wow,curious,boring,new,returning,returning_rate,sentiment", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2024-03-01,2,1,0,1,"))
	assert.True(t, strings.HasPrefix(lines[2], "2024-03-02,1,0,1,0,"))
}

func TestExportEventsCSV(t *testing.T) {
	app, _ := newTestServer(t)
	publicID := createSampleDataset(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/datasets/%s/export/events.csv", publicID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 4, "header plus three events")
	assert.Equal(t, "timestamp,emoji,label,user_id", lines[0])
	assert.Contains(t, lines[1], "2024-03-01T09:00:00Z")
	assert.Contains(t, lines[1], "Wow")
}

func TestExportNotFound(t *testing.T) {
	app, _ := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/datasets/nope/export/json", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Q3 Survey Results", displayName("q3_survey-results.csv"))
	assert.Equal(t, "Weekly Pulse", displayName("/tmp/weekly pulse.CSV"))
	assert.Equal(t, "Untitled Dataset", displayName(".csv"))
	assert.Equal(t, "Untitled Dataset", displayName(""))
}
