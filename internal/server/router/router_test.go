package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/rigcost/internal/repository/attachments"
	"github.com/mamadbah2/rigcost/internal/repository/flatfile"
	"github.com/mamadbah2/rigcost/internal/server/handlers"
	"github.com/mamadbah2/rigcost/internal/service/publishing"
	"github.com/mamadbah2/rigcost/internal/service/reporting"
)

const testPassword = "oilmoney"

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

type testServer struct {
	engine  *gin.Engine
	logPath string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLog(t, "")
}

// newTestServerWithLog writes initialLog as the report log before the stores are opened.
func newTestServerWithLog(t *testing.T, initialLog string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	logPath := filepath.Join(dir, "report_log.csv")
	if initialLog != "" {
		require.NoError(t, os.WriteFile(logPath, []byte(initialLog), 0o644))
	}
	records, err := flatfile.NewRecordStore(logPath, nil)
	require.NoError(t, err)
	estimates, err := flatfile.NewEstimateStore(filepath.Join(dir, "estimates.json"), nil)
	require.NoError(t, err)
	files, err := attachments.NewLocalStore(filepath.Join(dir, "uploaded_reports"), nil)
	require.NoError(t, err)

	svc := reporting.NewService(records, estimates, files, nil)
	pub := publishing.NewService(svc, nil, nil, nil, nil)

	engine := New(Handlers{
		Entries: handlers.NewEntryHandler(svc, 1<<20, nil),
		Reports: handlers.NewReportHandler(svc, nil),
		Publish: handlers.NewPublishHandler(pub, nil),
	}, Options{InputPassword: testPassword, CORSAllowedOrigins: []string{"*"}}, nil)

	return &testServer{engine: engine, logPath: logPath}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func entryForm(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func dayFields(day, cost string) map[string]string {
	return map[string]string{
		"date":       "2024-03-0" + day,
		"day_number": day,
		"phase":      "Drilling",
		"daily_cost": cost,
		"depth_ft":   "1200",
		"notes":      "drilled ahead",
	}
}

func (s *testServer) createEntry(t *testing.T, fields map[string]string, filename string) map[string]string {
	t.Helper()
	body, ctype := entryForm(t, fields, filename, pdfBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(PasswordHeader, testPassword)

	w := s.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWritesRequirePassword(t *testing.T) {
	s := newTestServer(t)

	body, ctype := entryForm(t, dayFields("1", "100"), "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(PasswordHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/check", nil)
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/check", nil)
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusOK, s.do(req).Code)

	// reads stay open
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/api/entries", nil)).Code)
}

func TestCreateListAndViewAttachment(t *testing.T) {
	s := newTestServer(t)
	created := s.createEntry(t, dayFields("1", "1000"), "day1.pdf")
	require.NotEmpty(t, created["id"])
	assert.Equal(t, created["id"]+"-day1.pdf", created["filename"])

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/entries", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Entries []struct {
			ID                  string `json:"id"`
			DailyCost           string `json:"daily_cost"`
			Valid               bool   `json:"valid"`
			AttachmentAvailable bool   `json:"attachment_available"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Entries, 1)
	assert.Equal(t, created["id"], list.Entries[0].ID)
	assert.Equal(t, "1000", list.Entries[0].DailyCost)
	assert.True(t, list.Entries[0].Valid)
	assert.True(t, list.Entries[0].AttachmentAvailable)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/attachments/"+created["filename"], nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))
	assert.Equal(t, pdfBytes, w.Body.Bytes())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		field  string
	}{
		{"negative cost", dayFields("1", "-10"), "daily_cost"},
		{"unparseable cost", dayFields("1", "lots"), "daily_cost"},
		{"unknown phase", func() map[string]string { f := dayFields("1", "1"); f["phase"] = "Production"; return f }(), "phase"},
		{"day zero", func() map[string]string { f := dayFields("1", "1"); f["day_number"] = "0"; return f }(), "day_number"},
		{"missing date", func() map[string]string { f := dayFields("1", "1"); delete(f, "date"); return f }(), "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := entryForm(t, tt.fields, "", nil)
			req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
			req.Header.Set("Content-Type", ctype)
			req.Header.Set(PasswordHeader, testPassword)

			w := s.do(req)
			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.field, resp["field"])
		})
	}

	body, ctype := entryForm(t, dayFields("1", "1"), "notes.pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code, "empty upload")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/entries", nil))
	assert.JSONEq(t, `{"entries":[]}`, w.Body.String())
}

func TestEstimateAndSummary(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/estimate", strings.NewReader(`{"drilling_afe": 2500, "completion_afe": "1000.50", "estimated_days": 10}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(PasswordHeader, testPassword)
	require.Equal(t, http.StatusOK, s.do(req).Code)

	s.createEntry(t, dayFields("1", "1000"), "")
	s.createEntry(t, dayFields("2", "2000"), "")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Summary struct {
			Drilling struct {
				AFE      decimal.Decimal `json:"afe"`
				Actual   decimal.Decimal `json:"actual"`
				Variance decimal.Decimal `json:"variance"`
			} `json:"drilling"`
			Completion struct {
				Variance decimal.Decimal `json:"variance"`
			} `json:"completion"`
			DaysReported int `json:"days_reported"`
		} `json:"summary"`
		Text map[string]string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, decimal.NewFromInt(3000).Equal(resp.Summary.Drilling.Actual))
	assert.True(t, decimal.NewFromInt(500).Equal(resp.Summary.Drilling.Variance))
	assert.True(t, decimal.RequireFromString("-1000.50").Equal(resp.Summary.Completion.Variance))
	assert.Equal(t, 2, resp.Summary.DaysReported)
	assert.Equal(t, "AFE: $2,500 / Actual: $3,000 / Variance: $500", resp.Text["drilling"])

	req = httptest.NewRequest(http.MethodPut, "/api/estimate", strings.NewReader(`{"drilling_afe": -1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/series", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"day_number":2`)
}

func TestDeleteCascadesAndMisses(t *testing.T) {
	s := newTestServer(t)
	created := s.createEntry(t, dayFields("1", "1000"), "day1.pdf")

	req := httptest.NewRequest(http.MethodDelete, "/api/entries/missing", nil)
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/entry-keys?day=9&date=2024-03-09", nil)
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/entry-keys?day=x&date=2024-03-09", nil)
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/entries/"+created["id"], nil)
	req.Header.Set(PasswordHeader, testPassword)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created["filename"])

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/attachments/"+created["filename"], nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateByKeyKeepsAttachment(t *testing.T) {
	s := newTestServer(t)
	created := s.createEntry(t, dayFields("1", "1000"), "day1.pdf")

	form := dayFields("1", "1100")
	form["phase"] = "completion"
	body, ctype := entryForm(t, form, "", nil)
	req := httptest.NewRequest(http.MethodPut, "/api/entry-keys?day=1&date=2024-03-01&filename="+created["filename"], body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(PasswordHeader, testPassword)

	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created["id"], updated["id"])
	assert.Equal(t, created["filename"], updated["filename"])
	assert.Equal(t, "Completion", updated["phase"])
	assert.Equal(t, "1100", updated["daily_cost"])
}

func TestDashboardAndExport(t *testing.T) {
	s := newTestServer(t)
	s.createEntry(t, dayFields("1", "1000"), "day1.pdf")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var dash struct {
		Rows        []json.RawMessage `json:"rows"`
		Series      []json.RawMessage `json:"series"`
		Attachments []struct {
			Name      string `json:"name"`
			Available bool   `json:"available"`
		} `json:"attachments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Len(t, dash.Rows, 1)
	assert.Len(t, dash.Series, 1)
	require.Len(t, dash.Attachments, 1)
	assert.True(t, dash.Attachments[0].Available)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/export.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report Log")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUnavailableLogIsReported(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(s.logPath, []byte("Date,Notes\n2024-01-01,x\n"), 0o644))

	assert.Equal(t, http.StatusServiceUnavailable, s.do(httptest.NewRequest(http.MethodGet, "/api/entries", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(httptest.NewRequest(http.MethodGet, "/api/summary", nil)).Code)
}

func TestServerStartsOnCorruptLog(t *testing.T) {
	s := newTestServerWithLog(t, "Date,Notes\n2024-01-01,x\n")

	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(httptest.NewRequest(http.MethodGet, "/api/entries", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)).Code)

	body, ctype := entryForm(t, dayFields("1", "100"), "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(req).Code)

	// the estimate lives in its own file and stays usable
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/api/estimate", nil)).Code)
}

func TestPublishingDisabled(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/publish", nil)
	req.Header.Set(PasswordHeader, testPassword)
	assert.Equal(t, http.StatusConflict, s.do(req).Code)

	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/api/snapshots", nil)).Code)
}
