package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/audit"
	"github.com/sells-group/shopfloor/internal/auth"
	"github.com/sells-group/shopfloor/internal/lookup"
)

const auditTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.lookup.Ping(r.Context()); err != nil {
		zap.L().Error("api: health check failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": "database unavailable",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "user": p})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	term := r.URL.Query().Get("term")
	limit := queryInt(r, "limit")

	matches, err := s.lookup.Search(r.Context(), term, limit)
	s.record(r, audit.ActionSearch, strings.TrimSpace(term), len(matches), err, start)
	if err != nil {
		respondLookupError(w, r, err, msgTermRequired)
		return
	}
	respondJSON(w, http.StatusOK, NewSearchResponse(strings.TrimSpace(term), matches))
}

func (s *Server) handlePartsList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	order := r.URL.Query().Get("ordem")

	locale, err := ParseLocale(r.URL.Query().Get("locale"))
	if err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidLocale)
		return
	}

	result, err := s.lookup.ListParts(r.Context(), order)
	count := 0
	if result != nil {
		count = result.ItemCount()
	}
	s.record(r, audit.ActionParts, strings.TrimSpace(order), count, err, start)
	if err != nil {
		respondLookupError(w, r, err, msgOrderRequired)
		return
	}
	respondJSON(w, http.StatusOK, NewPartsListResponse(result, locale))
}

func (s *Server) handleLots(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit := queryInt(r, "limit")

	lots, err := s.lookup.RecentLots(r.Context(), limit)
	s.record(r, audit.ActionLots, strconv.Itoa(limit), len(lots), err, start)
	if err != nil {
		respondLookupError(w, r, err, msgInternal)
		return
	}
	respondJSON(w, http.StatusOK, LotsResponse{Lots: lots})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.lookup.UserProfile(r.Context(), subjectOf(r))
	if err != nil {
		respondLookupError(w, r, err, msgInternal)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// handleOperations answers with a bare array of operation names, the shape
// the app already consumes.
func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	ops, err := s.lookup.UserOperations(r.Context(), subjectOf(r))
	if err != nil {
		respondLookupError(w, r, err, msgInternal)
		return
	}
	respondJSON(w, http.StatusOK, ops)
}

// subjectOf returns the authenticated subject, or "" outside requireAuth.
func subjectOf(r *http.Request) string {
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		return p.Subject
	}
	return ""
}

// queryInt reads an optional integer parameter. Missing or malformed values
// read as 0, which the engine replaces with its default.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil {
		return 0
	}
	return v
}

// record writes an audit entry. Failures are logged and never reach the
// client.
func (s *Server) record(r *http.Request, action audit.Action, query string, n int, lookupErr error, start time.Time) {
	outcome := "ok"
	if lookupErr != nil {
		outcome = lookup.KindOf(lookupErr).String()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), auditTimeout)
	defer cancel()

	_, err := s.audit.Record(ctx, audit.Entry{
		Action:      action,
		Subject:     subjectOf(r),
		Query:       query,
		ResultCount: n,
		Outcome:     outcome,
		Duration:    time.Since(start),
		RequestID:   RequestID(r.Context()),
	})
	if err != nil {
		zap.L().Warn("api: audit record failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
