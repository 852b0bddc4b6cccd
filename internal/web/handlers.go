package web

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hpungsan/langroutes/internal/config"
	"github.com/hpungsan/langroutes/internal/ops"
	"github.com/hpungsan/langroutes/internal/table"
)

// suggestedLanguages prefill the language form.
var suggestedLanguages = []string{"portuguese", "spanish", "french", "english", "arabic", "german"}

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	src      ops.Source
	cache    CacheStore
	cfg      *config.Config
	renderer *Renderer
	logger   *zap.Logger
}

// countriesResponse is the JSON body of GET /countries.
type countriesResponse struct {
	*ops.ListOutput
	Top    *ops.TopOutput    `json:"top"`
	Detail *ops.DetailOutput `json:"detail"`
}

// HandleIndex handles GET / — the language form.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "index", IndexPageData{
		PageData:    h.renderer.page("Countries by language", "search"),
		Language:    r.URL.Query().Get("lang"),
		Suggestions: suggestedLanguages,
	})
}

// HandleCountries handles GET /countries — table, selector, chart and card
// for one language. The whole page comes from a single fetch.
func (h *Handlers) HandleCountries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	loaded, err := ops.Load(r.Context(), h.src, ops.LoadInput{Language: q.Get("lang")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	top, err := ops.Rank(loaded, q.Get("field"), h.topN(r))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	selected := q.Get("name")
	if selected == "" {
		selected = loaded.Table.At(0).Name
	}
	detail, err := ops.Describe(loaded, selected)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, countriesResponse{
			ListOutput: ops.Listing(loaded),
			Top:        top,
			Detail:     detail,
		})
		return
	}

	h.renderer.renderPage(w, r, "countries", CountriesPageData{
		PageData:   h.renderer.page("Countries speaking "+loaded.Language, "countries"),
		Language:   loaded.Language,
		SnapshotID: loaded.Table.ID(),
		BuiltAt:    loaded.Table.BuiltAt(),
		Rows:       loaded.Table.All(),
		Names:      loaded.Table.Names(),
		Selected:   selected,
		Field:      top.Field,
		Fields:     table.Fields,
		N:          top.N,
		Chart:      buildChart(top),
		Detail:     detailView(detail),
	})
}

// HandleTop handles GET /countries/top — the ranking chart fragment.
func (h *Handlers) HandleTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	top, err := ops.Top(r.Context(), h.src, ops.TopInput{
		Language: q.Get("lang"),
		Field:    q.Get("field"),
		N:        h.topN(r),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, top)
		return
	}
	h.renderer.renderBlock(w, http.StatusOK, "countries", "chart", buildChart(top))
}

// HandleDetail handles GET /countries/detail — one country's card.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	detail, err := ops.Detail(r.Context(), h.src, ops.DetailInput{
		Language: q.Get("lang"),
		Name:     q.Get("name"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, detail)
		return
	}
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: h.renderer.page(detail.Country.Name, "countries"),
		Language: detail.Language,
		Detail:   detailView(detail),
	})
}

func detailView(detail *ops.DetailOutput) DetailView {
	return DetailView{
		Country: detail.Country,
		HTML:    renderMarkdown(detail.Markdown),
	}
}

// topN reads the n query parameter, falling back to the configured default.
func (h *Handlers) topN(r *http.Request) *int {
	n := parseIntParam(r, "n", h.cfg.TopN)
	return &n
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
