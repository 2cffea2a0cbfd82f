package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/DataEditor/internal/config"
	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/dataio"
	"github.com/JonMunkholm/DataEditor/internal/filter"
	"github.com/JonMunkholm/DataEditor/internal/table"
)

const peopleCSV = "name,age\nalice,30\nbob,25\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWith(func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	cfg.Rate.Enabled = false
	return cfg
}

// testClient talks to a running test server and keeps the session cookie.
type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newTestClient(t *testing.T, cfg *config.Config) *testClient {
	t.Helper()
	srv := NewServer(core.NewService(core.Options{}), cfg)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: ts.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, body
}

func (c *testClient) get(path string) (*http.Response, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *testClient) postJSON(path string, v any) (*http.Response, []byte) {
	c.t.Helper()
	var body io.Reader = http.NoBody
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(c.t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) postForm(path string, form map[string][]string) (*http.Response, []byte) {
	c.t.Helper()
	var sb strings.Builder
	for k, vs := range form {
		for _, v := range vs {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(k + "=" + v)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(sb.String()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// upload posts a multipart file. An empty name sends a form without a file.
func (c *testClient) upload(path, name, content string) (*http.Response, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(c.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(c.t, err)
	} else {
		require.NoError(c.t, mw.WriteField("note", "no file"))
	}
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func TestAPI_UploadEditCommitExport(t *testing.T) {
	c := newTestClient(t, testConfig(t))

	resp, body := c.upload("/api/upload", "people.csv", peopleCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	up := decode[struct {
		FileName string    `json:"file_name"`
		Rows     int       `json:"rows"`
		Columns  int       `json:"columns"`
		Names    []string  `json:"column_names"`
		Preview  TableJSON `json:"preview"`
	}](t, body)
	assert.Equal(t, "people.csv", up.FileName)
	assert.Equal(t, 2, up.Rows)
	assert.Equal(t, []string{"name", "age"}, up.Names)
	assert.Len(t, up.Preview.Data, 2)
	assert.Equal(t, table.TypeInt, up.Preview.Schema[1].Type)

	resp, body = c.postJSON("/api/navigate", NavigateRequest{Page: "edit"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, core.PageEdit, decode[core.State](t, body).Page)

	value := "40"
	resp, body = c.postJSON("/api/edit/cell", UpdateCellRequest{Row: 0, Column: "age", Value: &value})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	cell := decode[UpdateCellResponse](t, body)
	assert.EqualValues(t, 40, cell.Value)
	assert.Equal(t, "40", cell.Display)

	// Export still sees the canonical table before commit.
	_, body = c.get("/api/export")
	assert.Equal(t, peopleCSV, string(body))

	resp, body = c.postJSON("/api/edit/commit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 2, decode[ShapeResponse](t, body).Rows)

	resp, body = c.get("/api/export")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "name,age\nalice,40\nbob,25\n", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), dataio.ExportFileName)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	resp, body = c.get("/api/history?limit=10")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hist := decode[HistoryResponse](t, body)
	require.NotEmpty(t, hist.Entries)
	assert.Equal(t, core.ActionExport, hist.Entries[0].Action)
}

func TestAPI_EditActions(t *testing.T) {
	c := newTestClient(t, testConfig(t))
	c.upload("/api/upload", "people.csv", peopleCSV)
	c.postJSON("/api/navigate", NavigateRequest{Page: "edit"})

	resp, body := c.postJSON("/api/edit/insert-row", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, 2, decode[map[string]int](t, body)["row"])

	resp, body = c.postJSON("/api/edit/delete-rows", DeleteRowsRequest{Rows: []int{0}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 2, decode[ShapeResponse](t, body).Rows)

	resp, body = c.postJSON("/api/edit/delete-columns", DeleteColumnsRequest{Columns: []string{"age"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, []string{"name"}, decode[ShapeResponse](t, body).Names)

	resp, body = c.get("/api/table")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	working := decode[TableJSON](t, body)
	assert.Equal(t, 2, working.Rows)
	assert.Equal(t, []any{"bob"}, working.Data[0])
	assert.Equal(t, []any{nil}, working.Data[1])

	// The canonical table is untouched until commit.
	_, body = c.get("/api/table?source=data")
	assert.Equal(t, 2, decode[TableJSON](t, body).Columns)
}

func TestAPI_Filter(t *testing.T) {
	c := newTestClient(t, testConfig(t))
	c.upload("/api/upload", "people.csv", peopleCSV)
	c.postJSON("/api/navigate", NavigateRequest{Page: "edit"})

	resp, body := c.get("/api/edit/filter-options?column=name")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	opts := decode[filter.Options](t, body)
	assert.Equal(t, filter.ModeSelect, opts.Mode)
	assert.ElementsMatch(t, []string{"alice", "bob"}, opts.Values)

	resp, body = c.postJSON("/api/edit/filter", FilterRequest{Column: "age", Value: "25"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	res := decode[FilterResponse](t, body)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.Matched)
	assert.Nil(t, res.Warning)
	assert.Equal(t, []any{"bob", float64(25)}, res.Table.Data[0])

	resp, body = c.postJSON("/api/edit/filter", FilterRequest{Column: "name", Value: "zed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	res = decode[FilterResponse](t, body)
	assert.False(t, res.Applied)
	require.NotNil(t, res.Warning)
	assert.Equal(t, "FLT001", res.Warning.Code)
	assert.Equal(t, 2, res.Table.Rows)

	// Filtering never narrows the working copy.
	_, body = c.get("/api/table")
	assert.Equal(t, 2, decode[TableJSON](t, body).Rows)
}

func TestAPI_Errors(t *testing.T) {
	tests := []struct {
		name   string
		setup  bool // upload and enter Edit first
		call   func(c *testClient) (*http.Response, []byte)
		status int
		code   string
	}{
		{
			name:   "edit without data",
			call:   func(c *testClient) (*http.Response, []byte) { return c.postJSON("/api/navigate", NavigateRequest{Page: "edit"}) },
			status: http.StatusConflict,
			code:   "SES001",
		},
		{
			name:   "edit action outside edit",
			call:   func(c *testClient) (*http.Response, []byte) { return c.postJSON("/api/edit/insert-row", nil) },
			status: http.StatusConflict,
			code:   "SES002",
		},
		{
			name:   "export without data",
			call:   func(c *testClient) (*http.Response, []byte) { return c.get("/api/export") },
			status: http.StatusConflict,
			code:   "SES001",
		},
		{
			name:   "unknown page",
			call:   func(c *testClient) (*http.Response, []byte) { return c.postJSON("/api/navigate", NavigateRequest{Page: "admin"}) },
			status: http.StatusBadRequest,
			code:   "SES005",
		},
		{
			name:  "invalid number",
			setup: true,
			call: func(c *testClient) (*http.Response, []byte) {
				v := "forty"
				return c.postJSON("/api/edit/cell", UpdateCellRequest{Row: 0, Column: "age", Value: &v})
			},
			status: http.StatusUnprocessableEntity,
			code:   "VAL002",
		},
		{
			name:  "row out of range",
			setup: true,
			call: func(c *testClient) (*http.Response, []byte) {
				return c.postJSON("/api/edit/delete-rows", DeleteRowsRequest{Rows: []int{9}})
			},
			status: http.StatusNotFound,
			code:   "VAL004",
		},
		{
			name:  "unknown column",
			setup: true,
			call: func(c *testClient) (*http.Response, []byte) {
				return c.postJSON("/api/edit/filter", FilterRequest{Column: "height", Value: "1"})
			},
			status: http.StatusNotFound,
			code:   "VAL005",
		},
		{
			name:   "unsupported format",
			call:   func(c *testClient) (*http.Response, []byte) { return c.upload("/api/upload", "notes.txt", "hello") },
			status: http.StatusUnsupportedMediaType,
			code:   "FILE006",
		},
		{
			name:   "missing file",
			call:   func(c *testClient) (*http.Response, []byte) { return c.upload("/api/upload", "", "") },
			status: http.StatusBadRequest,
			code:   "FILE004",
		},
		{
			name:   "empty file",
			call:   func(c *testClient) (*http.Response, []byte) { return c.upload("/api/upload", "empty.csv", "") },
			status: http.StatusUnprocessableEntity,
			code:   "FILE005",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, testConfig(t))
			if tt.setup {
				c.upload("/api/upload", "people.csv", peopleCSV)
				c.postJSON("/api/navigate", NavigateRequest{Page: "edit"})
			}
			resp, body := tt.call(c)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.code, decode[ErrorResponse](t, body).Code)
		})
	}
}

func TestAPI_UploadTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 64
	c := newTestClient(t, cfg)

	resp, body := c.upload("/api/upload", "big.csv", "a,b\n"+strings.Repeat("1,2\n", 100))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, string(body))
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, body).Code)
}

func TestAPI_FailedUploadKeepsData(t *testing.T) {
	c := newTestClient(t, testConfig(t))
	c.upload("/api/upload", "people.csv", peopleCSV)

	resp, _ := c.upload("/api/upload", "broken.csv", "a,b\n1,2,3\n")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, body := c.get("/api/session")
	st := decode[core.State](t, body)
	assert.Equal(t, "people.csv", st.FileName)
	assert.Equal(t, 2, st.Rows)
}

func TestPages(t *testing.T) {
	c := newTestClient(t, testConfig(t))

	resp, _ := c.get("/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/upload", resp.Header.Get("Location"))

	resp, body := c.get("/edit")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "SES001")

	resp, body = c.get("/view")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "No data loaded")

	resp, body = c.upload("/upload", "people.csv", peopleCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "people.csv: 2 rows × 2 columns")
	assert.Contains(t, string(body), "alice")

	resp, body = c.get("/edit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `action="/edit/cell"`)

	resp, _ = c.postForm("/edit/cell", map[string][]string{"row": {"1"}, "column": {"name"}, "value": {"carol"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = c.postForm("/edit/cell", map[string][]string{"row": {"0"}, "column": {"age"}, "value": {"old"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "VAL002")

	resp, body = c.postForm("/edit/filter", map[string][]string{"column": {"name"}, "value": {"carol"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Showing 1 rows where name = carol.")

	resp, _ = c.postForm("/edit/commit", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = c.get("/view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Export CSV")
	assert.Contains(t, string(body), "carol")

	resp, body = c.get("/view/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "name,age\nalice,30\ncarol,25\n", string(body))

	resp, _ = c.postForm("/edit/frobnicate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPages_EscapeCellText(t *testing.T) {
	c := newTestClient(t, testConfig(t))
	c.upload("/upload", "x.csv", "name\n<script>alert(1)</script>\n")

	_, body := c.get("/view")
	assert.NotContains(t, string(body), "<script>")
	assert.Contains(t, string(body), "&lt;script&gt;")
}

func TestSessionCookie(t *testing.T) {
	cfg := testConfig(t)
	srv := NewServer(core.NewService(core.Options{}), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cfg.Session.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	first := cookies[0].Value

	// A known cookie is reused without a new Set-Cookie.
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Session.CookieName, Value: first})
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, first, decode[core.State](t, rec.Body.Bytes()).ID)

	// An unknown cookie gets a fresh session.
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Session.CookieName, Value: "not-a-session"})
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, first, rec.Result().Cookies()[0].Value)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, testConfig(t))
	resp, body := c.get("/api/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h := decode[HealthResponse](t, body)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 4, h.Uploads.MaxConcurrent)
}

func TestSecurityHeaders(t *testing.T) {
	for _, csp := range []bool{true, false} {
		rec := httptest.NewRecorder()
		h := securityHeaders(csp)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, csp, rec.Header().Get("Content-Security-Policy") != "")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"), "limits are per IP")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.allow("1.1.1.1"), "window resets")
}

func TestRateLimiterMiddleware(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, UploadLimit: 1}
	srv := NewServer(core.NewService(core.Options{}), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	serve := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
		req.RemoteAddr = "9.9.9.9:1000"
		srv.Router().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve().Code)
	rec := serve()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec.Body.Bytes()).Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestStatusForError(t *testing.T) {
	tests := map[error]int{
		core.ErrNoData:              http.StatusConflict,
		core.ErrTooManyUploads:      http.StatusServiceUnavailable,
		table.ErrRowOutOfRange:      http.StatusNotFound,
		table.ErrInvalidBoolean:     http.StatusUnprocessableEntity,
		dataio.ErrUnsupportedFormat: http.StatusUnsupportedMediaType,
		errBadRequest:               http.StatusBadRequest,
		io.ErrUnexpectedEOF:         http.StatusInternalServerError,
	}
	for err, want := range tests {
		assert.Equal(t, want, statusForError(err), "statusForError(%v)", err)
	}
}
