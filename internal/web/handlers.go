package web

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/statustracker/internal/chart"
	"github.com/hpungsan/statustracker/internal/config"
	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/logging"
	"github.com/hpungsan/statustracker/internal/metrics"
	"github.com/hpungsan/statustracker/internal/ops"
	"github.com/hpungsan/statustracker/internal/store"
	"github.com/hpungsan/statustracker/internal/tracker"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	src      ops.Source
	store    *store.Store
	cfg      *config.Config
	metrics  *metrics.Metrics
	renderer *Renderer
	now      func() time.Time
}

// countsInput reads the shared range query parameters.
func (h *Handlers) countsInput(r *http.Request) (ops.CountsInput, RangeForm, error) {
	q := r.URL.Query()
	form := RangeForm{
		From:       q.Get("from"),
		To:         q.Get("to"),
		Categories: q.Get("categories"),
		Smoothing:  q.Get("smoothing"),
		ServerSide: parseBoolParam(r, "server_side"),
	}

	from, to, err := ops.ResolveRange(form.From, form.To, h.now())
	if err != nil {
		return ops.CountsInput{}, form, err
	}

	cats := splitList(form.Categories)
	if len(cats) == 0 {
		cats = h.cfg.Categories
	}
	return ops.CountsInput{
		From:       from,
		To:         to,
		Categories: cats,
		Smoothing:  splitList(form.Smoothing),
		MaxRange:   h.cfg.MaxRangeMinutes,
	}, form, nil
}

// record keeps the latest result of a query for /latest.
func (h *Handlers) record(kind store.Kind, query, payload any) store.Entry {
	entry := h.store.Put(kind, query, payload)
	h.metrics.StoreWrite(string(kind))
	logging.WithQuery(nil, string(kind), entry.ID).Debug("stored result")
	return entry
}

// HandleCounts handles GET /counts: reconstructed occupancy for a range.
func (h *Handlers) HandleCounts(w http.ResponseWriter, r *http.Request) {
	input, form, err := h.countsInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Counts(r.Context(), h.src, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	entry := h.record(store.KindCounts, input, result)

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	summary := ops.SummarizeCounts(result)
	h.renderer.renderPage(w, "counts", CountsPageData{
		PageData:    h.pageData("Counts", "counts"),
		Form:        form,
		Counts:      result,
		Summary:     summary,
		SummaryHTML: h.renderer.renderMarkdown(summary.Markdown),
		Charts:      countsCharts(result, form),
		StoredID:    entry.ID,
	})
}

// HandleCountsChart renders GET /counts/chart.png and /counts/chart.svg.
func (h *Handlers) HandleCountsChart(format chart.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, _, err := h.countsInput(r)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		window := tracker.Raw
		if s := r.URL.Query().Get("window"); s != "" {
			window, err = tracker.ParseRollingAverage(s)
			if err != nil {
				h.renderer.renderError(w, r, errors.NewInvalidRequest(err.Error()))
				return
			}
			if window != tracker.Raw {
				input.Smoothing = append(input.Smoothing, s)
			}
		}

		result, err := ops.Counts(r.Context(), h.src, input)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := chart.Counts(&buf, result.Series, window, format, chartOptions(r)); err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		writeImage(w, format, buf.Bytes())
	}
}

func (h *Handlers) sessionsInput(r *http.Request) (ops.SessionsInput, RangeForm, error) {
	q := r.URL.Query()
	form := RangeForm{
		From:       q.Get("from"),
		To:         q.Get("to"),
		ServerSide: parseBoolParam(r, "server_side"),
	}
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		return ops.SessionsInput{}, form, errors.NewInvalidRequest("player name is required")
	}

	from, to, err := ops.ResolveRange(form.From, form.To, h.now())
	if err != nil {
		return ops.SessionsInput{}, form, err
	}
	return ops.SessionsInput{
		Name:       name,
		From:       from,
		To:         to,
		ServerSide: form.ServerSide,
		MaxRange:   h.cfg.MaxRangeMinutes,
	}, form, nil
}

// HandlePlayer handles GET /players/{name}: presence intervals for one player.
func (h *Handlers) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	input, form, err := h.sessionsInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.PlayerSessions(r.Context(), h.src, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	entry := h.record(store.KindSessions, input, result)

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "player", PlayerPageData{
		PageData: h.pageData(result.Name, "players"),
		Form:     form,
		Sessions: result,
		ChartURL: template.URL("/players/" + url.PathEscape(result.Name) + "/chart.png?" + chartQuery(result.Range, form)),
		StoredID: entry.ID,
	})
}

// HandlePlayerChart handles GET /players/{name}/chart.png.
func (h *Handlers) HandlePlayerChart(w http.ResponseWriter, r *http.Request) {
	input, _, err := h.sessionsInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.PlayerSessions(r.Context(), h.src, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Sessions(&buf, result.Name, result.Intervals, result.Range.From, result.Range.To, chart.PNG, chartOptions(r)); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	writeImage(w, chart.PNG, buf.Bytes())
}

// HandlePlayerLookup handles GET /players?name= by redirecting to the player page.
func (h *Handlers) HandlePlayerLookup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("player name is required"))
		return
	}
	q := r.URL.Query()
	q.Del("name")
	target := "/players/" + url.PathEscape(name)
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLatest handles GET /latest: the most recent stored result per kind.
func (h *Handlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		renderJSON(w, http.StatusOK, h.store.All())
		return
	}

	entry, ok := h.store.Latest(store.Kind(kind))
	if !ok {
		h.renderer.renderError(w, r, errors.NewNoData("store kind "+kind))
		return
	}
	renderJSON(w, http.StatusOK, entry)
}

func (h *Handlers) pageData(title, nav string) PageData {
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Nav:     nav,
		Server:  h.cfg.ServerURL,
	}
}

// chartQuery rebuilds the query string for chart image links with the
// resolved range, so the image matches the page.
func chartQuery(r ops.TimeRange, form RangeForm) string {
	q := url.Values{}
	q.Set("from", r.From.Time().Format(time.RFC3339))
	q.Set("to", r.To.Time().Format(time.RFC3339))
	if form.Categories != "" {
		q.Set("categories", form.Categories)
	}
	if form.ServerSide {
		q.Set("server_side", "true")
	}
	return q.Encode()
}

func countsCharts(result *ops.CountsOutput, form RangeForm) []ChartLink {
	if result.Series.Len() == 0 {
		return nil
	}
	base := chartQuery(result.Range, form)
	var out []ChartLink
	for _, w := range result.Series.Windows() {
		q := base + "&window=" + strconv.FormatUint(uint64(w), 10)
		out = append(out, ChartLink{
			Label: w.Label(),
			PNG:   template.URL("/counts/chart.png?" + q),
			SVG:   template.URL("/counts/chart.svg?" + q),
		})
	}
	return out
}

func chartOptions(r *http.Request) chart.Options {
	return chart.Options{
		Width:  parseIntParam(r, "width", 0),
		Height: parseIntParam(r, "height", 0),
	}
}

func writeImage(w http.ResponseWriter, format chart.Format, body []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
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

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1" || s == "on"
}

// splitList splits a comma-separated parameter, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
