package web

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hpungsan/langroutes/internal/config"
	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
	"github.com/hpungsan/langroutes/internal/ops"
)

type fakeSource struct {
	records map[string][]country.RawRecord
	err     error
	calls   int
}

func (f *fakeSource) FetchByLanguage(_ context.Context, language string) ([]country.RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records[language], nil
}

func record(name string, population int64, area float64) country.RawRecord {
	return country.RawRecord(fmt.Sprintf(`{
		"name": {"common": %q},
		"flags": {"svg": "https://flags.example/%s.svg"},
		"capital": ["Capital of %s"],
		"region": "Testland",
		"languages": {"por": "Portuguese"},
		"currencies": {"XTS": {"name": "Test dollar"}},
		"population": %d,
		"area": %g,
		"maps": {"googleMaps": "https://maps.example/%s"}
	}`, name, name, name, population, area, name))
}

func setupTest(t *testing.T) (*Handlers, *fakeSource) {
	t.Helper()
	src := &fakeSource{records: map[string][]country.RawRecord{
		"portuguese": {
			record("Portugal", 10000000, 92090),
			record("Brazil", 214000000, 8515767),
			record("Angola", 35000000, 1246700),
		},
		"tlh": {record("Qo'noS <script>alert(1)</script>", 5, 5)},
	}}

	templateSub, err := fs.Sub(templateFS, "templates")
	require.NoError(t, err)

	return &Handlers{
		src:      src,
		cfg:      config.DefaultConfig(),
		renderer: NewRenderer(templateSub, "test", zap.NewNop()),
		logger:   zap.NewNop(),
	}, src
}

func serve(h *Handlers, req *http.Request) *httptest.ResponseRecorder {
	staticSub, _ := fs.Sub(staticFS, "static")
	rec := httptest.NewRecorder()
	h.Routes(http.FileServerFS(staticSub)).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code   string `json:"code"`
			Status int    `json:"status"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Code, body.Error.Status)
	return body.Error.Code
}

// --- HandleIndex ---

func TestHandleIndex(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Countries by language")
	assert.Contains(t, body, `action="/countries"`)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestUnknownPathIs404(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticCSS(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/static/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".chart rect")
}

// --- HandleCountries ---

func TestHandleCountries_FullPage(t *testing.T) {
	h, src := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/countries?lang=Portuguese", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Countries speaking portuguese")
	assert.Contains(t, body, "3 countries")
	assert.Contains(t, body, "214,000,000")
	assert.Contains(t, body, "8,515,767 km²")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "1. Brazil")

	// Table is in name order.
	iAngola := strings.Index(body, ">Angola</a>")
	iBrazil := strings.Index(body, ">Brazil</a>")
	iPortugal := strings.Index(body, ">Portugal</a>")
	require.True(t, iAngola > 0 && iBrazil > 0 && iPortugal > 0)
	assert.Less(t, iAngola, iBrazil)
	assert.Less(t, iBrazil, iPortugal)

	// First row is selected by default.
	assert.Contains(t, body, "<h2>Angola</h2>")
	assert.Equal(t, 1, src.calls, "page should fetch once")
}

func TestHandleCountries_SelectedName(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/countries?lang=portuguese&name=Portugal", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>Portugal</h2>")
	assert.Contains(t, body, "<strong>Population:</strong> 10,000,000")
	assert.Contains(t, body, `<option value="Portugal" selected>`)
}

func TestHandleCountries_JSON(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/countries?lang=portuguese&field=area&n=2", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Language string `json:"language"`
		Count    int    `json:"count"`
		Items    []struct {
			Name string `json:"name"`
		} `json:"items"`
		Top    ops.TopOutput `json:"top"`
		Detail struct {
			Country struct {
				Name string `json:"name"`
			} `json:"country"`
		} `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "portuguese", resp.Language)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "Angola", resp.Items[0].Name)
	assert.Equal(t, "area", resp.Top.Field)
	require.Len(t, resp.Top.Items, 2)
	assert.Equal(t, "Brazil", resp.Top.Items[0].Name)
	assert.Equal(t, "Angola", resp.Top.Items[1].Name)
	assert.Equal(t, "Angola", resp.Detail.Country.Name)
}

func TestHandleCountries_HtmxReturnsContentOnly(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/countries?lang=portuguese", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, rec.Body.String(), "Brazil")
}

func TestHandleCountries_InvalidNFallsBack(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/countries?lang=portuguese&n=lots", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Top ops.TopOutput `json:"top"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, h.cfg.TopN, resp.Top.N)
}

func TestHandleCountries_Errors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantCode   string
	}{
		{"blank language", "/countries?lang=+", http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing language", "/countries", http.StatusBadRequest, "INVALID_REQUEST"},
		{"no countries", "/countries?lang=latin", http.StatusNotFound, "NO_DATA_FOUND"},
		{"unknown name", "/countries?lang=portuguese&name=Atlantis", http.StatusNotFound, "NOT_FOUND"},
		{"negative n", "/countries?lang=portuguese&n=-3", http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown field", "/countries?lang=portuguese&field=gdp", http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTest(t)
			req := httptest.NewRequest("GET", tt.url, nil)
			req.Header.Set("Accept", "application/json")
			rec := serve(h, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec))
		})
	}
}

func TestHandleCountries_ErrorPage(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/countries?lang=latin", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Error 404")
	assert.Contains(t, body, "latin")
}

func TestHandleCountries_HtmxError(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/countries?lang=latin", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(h, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div class="error-message">`))
}

func TestHandleCountries_TransportFailure(t *testing.T) {
	h, src := setupTest(t)
	src.err = errors.NewTransportFailure(stderrors.New("dial tcp: connection refused"))

	req := httptest.NewRequest("GET", "/countries?lang=portuguese", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "TRANSPORT_FAILURE", decodeError(t, rec))
}

// --- HandleTop ---

func TestHandleTop_Fragment(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/countries/top?lang=portuguese&n=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `id="chart"`)
	assert.Contains(t, body, "1. Brazil")
	assert.Contains(t, body, "2. Angola")
	assert.NotContains(t, body, "Portugal")
}

func TestHandleTop_JSON(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/countries/top?lang=portuguese&field=population&n=1", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var top ops.TopOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top.Items, 1)
	assert.Equal(t, "Brazil", top.Items[0].Name)
	assert.Equal(t, float64(214000000), top.Items[0].Value)
}

func TestHandleTop_ZeroIsEmptyChart(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/countries/top?lang=portuguese&n=0", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No countries to rank.")
}

// --- HandleDetail ---

func TestHandleDetail(t *testing.T) {
	h, _ := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/countries/detail?lang=portuguese&name=Portugal", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>Portugal</h2>")
	assert.Contains(t, body, `src="https://flags.example/Portugal.svg"`)
	assert.Contains(t, body, `href="https://maps.example/Portugal"`)
	assert.Contains(t, body, "<strong>Area:</strong> 92,090 km²")
	assert.Contains(t, body, "<strong>Borders:</strong> None")
}

func TestHandleDetail_EscapesNames(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/countries/detail?lang=tlh&name="+
		"Qo%27noS+%3Cscript%3Ealert%281%29%3C%2Fscript%3E", nil)
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func TestHandleDetail_Errors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"missing name", "/countries/detail?lang=portuguese", http.StatusBadRequest},
		{"case-sensitive", "/countries/detail?lang=portuguese&name=portugal", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTest(t)
			rec := serve(h, httptest.NewRequest("GET", tt.url, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

// --- chart ---

func TestBuildChart_ScalesToLargest(t *testing.T) {
	chart := buildChart(&ops.TopOutput{
		Field: "population",
		Label: "Population",
		Items: []ops.RankItem{
			{Rank: 1, Name: "A", Value: 200, Population: 200},
			{Rank: 2, Name: "B", Value: 100, Population: 100},
			{Rank: 3, Name: "C", Value: 0, Population: 0},
		},
	})

	require.Len(t, chart.Bars, 3)
	assert.Equal(t, chartBarMax, chart.Bars[0].Width)
	assert.Equal(t, chartBarMax/2, chart.Bars[1].Width)
	assert.Equal(t, 0, chart.Bars[2].Width)
	assert.Less(t, chart.Bars[0].Y, chart.Bars[1].Y)
	assert.Equal(t, "200", chart.Bars[0].Display)
}

func TestBuildChart_AllZero(t *testing.T) {
	chart := buildChart(&ops.TopOutput{
		Field: "area",
		Items: []ops.RankItem{{Rank: 1, Name: "A"}},
	})

	require.Len(t, chart.Bars, 1)
	assert.Equal(t, 0, chart.Bars[0].Width)
	assert.Equal(t, "0 km²", chart.Bars[0].Display)
}

func TestBuildChart_TinyValuesStayVisible(t *testing.T) {
	chart := buildChart(&ops.TopOutput{
		Field: "population",
		Items: []ops.RankItem{
			{Rank: 1, Name: "Big", Value: 1e9, Population: 1e9},
			{Rank: 2, Name: "Small", Value: 1, Population: 1},
		},
	})
	assert.Equal(t, 1, chart.Bars[1].Width)
}
