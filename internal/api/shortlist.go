package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "talent-shortlist/internal/common/errors"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/common/metrics"
	"talent-shortlist/internal/export"
	"talent-shortlist/internal/models"
	"talent-shortlist/internal/shortlist"

	"github.com/go-chi/chi/v5"
)

const (
	maxBodyBytes   = 1 << 20
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	eventHeartbeat = 25 * time.Second
)

// Searcher runs free-text queries against the search mirror.
type Searcher interface {
	Search(ctx context.Context, text string, size int) ([]models.CandidateRecord, error)
}

// ShortlistHandlers serves the shortlist under /api/v1/shortlist.
type ShortlistHandlers struct {
	store       *shortlist.Store
	grouper     *shortlist.Grouper
	broadcaster *shortlist.Broadcaster
	searcher    Searcher
	sheetName   string
	logger      logger.Logger
	heartbeat   time.Duration
	now         func() time.Time
}

type ShortlistOption func(*ShortlistHandlers)

func WithSearcher(s Searcher) ShortlistOption {
	return func(h *ShortlistHandlers) { h.searcher = s }
}

func WithBroadcaster(b *shortlist.Broadcaster) ShortlistOption {
	return func(h *ShortlistHandlers) { h.broadcaster = b }
}

func WithExportSheet(name string) ShortlistOption {
	return func(h *ShortlistHandlers) { h.sheetName = name }
}

func NewShortlistHandlers(store *shortlist.Store, grouper *shortlist.Grouper, log logger.Logger, opts ...ShortlistOption) *ShortlistHandlers {
	h := &ShortlistHandlers{
		store:     store,
		grouper:   grouper,
		logger:    log.WithFields(map[string]interface{}{"component": "shortlist-api"}),
		heartbeat: eventHeartbeat,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ShortlistHandlers) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Get("/groups", h.groups)
	r.Get("/search", h.search)
	r.Get("/export.xlsx", h.exportXLSX)
	r.Get("/events", h.events)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.remove)
}

type listResponse struct {
	Entries []models.CandidateRecord `json:"entries"`
	Count   int                      `json:"count"`
}

func (h *ShortlistHandlers) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		writeStandardError(r.Context(), w, shortlist.ToStandardError(err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Entries: entries, Count: len(entries)})
}

func (h *ShortlistHandlers) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeStandardError(r.Context(), w, shortlist.ToStandardError(err))
		return
	}
	if !ok {
		writeStandardError(r.Context(), w, apperrors.NewEntryNotFoundError(id))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// add returns 201 for a new entry and 200 with added=false for a duplicate.
func (h *ShortlistHandlers) add(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeStandardError(r.Context(), w, apperrors.NewParseError(err))
		return
	}
	var record models.CandidateRecord
	if err := json.Unmarshal(body, &record); err != nil {
		writeStandardError(r.Context(), w, apperrors.NewParseError(err))
		return
	}

	res, err := h.store.Add(r.Context(), record)
	if err != nil {
		writeStandardError(r.Context(), w, shortlist.ToStandardError(err))
		return
	}

	status := http.StatusOK
	if res.Added {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *ShortlistHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := h.store.Remove(r.Context(), id)
	if err != nil {
		writeStandardError(r.Context(), w, shortlist.ToStandardError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "entryId": id})
}

func (h *ShortlistHandlers) groups(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		writeStandardError(r.Context(), w, shortlist.ToStandardError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phases": h.grouper.Group(entries)})
}

func (h *ShortlistHandlers) search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "search_disabled", "search index is not configured")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	hits, err := h.searcher.Search(r.Context(), q, size)
	if err != nil {
		h.logger.Warn("Shortlist search failed", map[string]interface{}{"error": err.Error()})
		writeStandardError(r.Context(), w, apperrors.NewIndexUpdateFailedError(err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Entries: hits, Count: len(hits)})
}

func (h *ShortlistHandlers) exportXLSX(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		writeStandardError(r.Context(), w, shortlist.ToStandardError(err))
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := export.WriteShortlist(&buf, h.grouper.Group(entries), export.Options{SheetName: h.sheetName, GeneratedAt: now}); err != nil {
		writeStandardError(r.Context(), w, apperrors.NewExportFailedError(err))
		return
	}

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shortlist-%s.xlsx"`, now.Format(models.DateLayout)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// events streams change notifications as server-sent events until the client
// disconnects.
func (h *ShortlistHandlers) events(w http.ResponseWriter, r *http.Request) {
	if h.broadcaster == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "events_disabled", "change events are not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(r.Context(), w, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot stream")
		return
	}

	ch, cancel := h.broadcaster.Subscribe(32)
	defer cancel()
	metrics.ShortlistEventSubscribers.Inc()
	defer metrics.ShortlistEventSubscribers.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, open := <-ch:
			if !open {
				return
			}
			if err := writeEvent(w, event); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.logger.Debug("Event stream closed", map[string]interface{}{"error": err.Error()})
				}
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, event shortlist.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event.Type, event.At.UnixNano(), data)
	return err
}
