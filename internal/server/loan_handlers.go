package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bibliotecacth/sessiongate/internal/auth"
	jsonwriter "github.com/bibliotecacth/sessiongate/internal/json"
	"github.com/bibliotecacth/sessiongate/internal/ledger"
	"github.com/bibliotecacth/sessiongate/internal/log"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

const missingFields = "faltan campos"

// LoanHandlers records loans and returns for the signed-in user.
type LoanHandlers struct {
	ledger ledger.Recorder
	now    func() time.Time
}

// NewLoanHandlers creates loan handlers backed by recorder.
func NewLoanHandlers(recorder ledger.Recorder) *LoanHandlers {
	return &LoanHandlers{ledger: recorder, now: time.Now}
}

type loanRequest struct {
	StudentID json.RawMessage `json:"alumnoId"`
	BookID    json.RawMessage `json:"libroId"`
	Action    json.RawMessage `json:"accion"`
}

// ServeHTTP dispatches on method. Both routes require the session middleware.
func (h *LoanHandlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.record(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LoanHandlers) record(w http.ResponseWriter, r *http.Request) {
	record, ok := auth.RecordFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req loanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, missingFields, http.StatusBadRequest)
		return
	}

	studentID, bookID, action := field(req.StudentID), field(req.BookID), field(req.Action)
	if studentID == "" || bookID == "" || action == "" {
		http.Error(w, missingFields, http.StatusBadRequest)
		return
	}

	entry := ledger.NewEntry(record.Email, studentID, bookID, action, h.now())
	if err := h.ledger.Record(r.Context(), entry); err != nil {
		log.LogErrorWithFields("loans", "Failed to record loan", map[string]any{
			"id":    entry.ID,
			"error": err.Error(),
		})
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *LoanHandlers) list(w http.ResponseWriter, r *http.Request) {
	studentID := strings.TrimSpace(r.URL.Query().Get("alumnoId"))
	if studentID == "" {
		http.Error(w, missingFields, http.StatusBadRequest)
		return
	}

	entries, err := h.ledger.List(r.Context(), studentID)
	if err != nil {
		log.LogErrorWithFields("loans", "Failed to list loans", map[string]any{
			"alumnoId": studentID,
			"error":    err.Error(),
		})
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	_ = jsonwriter.Write(w, entries)
}

// field accepts a JSON string or number. Anything else, including an empty
// string, counts as missing.
func field(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "0" {
		return n.String()
	}
	return ""
}
