package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"wallet/internal/core"
	applog "wallet/internal/log"
)

const maxFormBytes = 64 << 10

type indexPage struct {
	Flash *Flash
	Cards []core.Card
	Best  []core.CategoryBest
}

type formRow struct {
	Category   string
	Multiplier string
}

type cardFormPage struct {
	Title      string
	Action     string
	Card       *core.Card
	Rows       []formRow
	Categories []string
}

// blankRows is the number of empty category rows offered on a card form.
const blankRows = 3

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cards, best := s.cards.Overview(r.Context())
	s.render(w, r, "index.html", indexPage{
		Flash: popFlash(w, r),
		Cards: cards,
		Best:  best,
	})
}

func (s *Server) handleNewCardForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "card_form.html", cardFormPage{
		Title:      "Add New Card",
		Action:     "/card/new",
		Rows:       formRows(nil),
		Categories: s.cards.AllCategories(r.Context()),
	})
}

func (s *Server) handleEditCardForm(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	card, ok := s.cards.GetCard(r.Context(), name)
	if !ok {
		s.redirectWithFlash(w, r, FlashError, notFoundMessage(name))
		return
	}
	s.render(w, r, "card_form.html", cardFormPage{
		Title:      "Edit " + name,
		Action:     "/card/edit/" + url.PathEscape(name),
		Card:       &card,
		Rows:       formRows(card.Multipliers),
		Categories: s.cards.AllCategories(r.Context()),
	})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	data, ok := s.parseCardForm(w, r)
	if !ok {
		return
	}
	card, err := s.cards.AddCard(r.Context(), data)
	if err != nil {
		s.failWithFlash(w, r, err, applog.OpCreate, rawName(data))
		return
	}
	s.redirectWithFlash(w, r, FlashSuccess, fmt.Sprintf("Card '%s' added successfully!", card.Name))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	original := r.PathValue("name")
	data, ok := s.parseCardForm(w, r)
	if !ok {
		return
	}
	card, err := s.cards.UpdateCard(r.Context(), original, data)
	if err != nil {
		name := rawName(data)
		if errors.Is(err, core.ErrNotFound) {
			name = original
		}
		s.failWithFlash(w, r, err, applog.OpUpdate, name)
		return
	}
	s.redirectWithFlash(w, r, FlashSuccess, fmt.Sprintf("Card '%s' updated successfully!", card.Name))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.cards.DeleteCard(r.Context(), name); err != nil {
		s.failWithFlash(w, r, err, applog.OpDelete, name)
		return
	}
	s.redirectWithFlash(w, r, FlashSuccess, fmt.Sprintf("Card '%s' deleted successfully!", name))
}

func (s *Server) handleBestReport(w http.ResponseWriter, r *http.Request) {
	best := s.cards.BestPerCategory(r.Context())
	if best == nil {
		best = []core.CategoryBest{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(best); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to encode best card report",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRank)
	}
}

func (s *Server) parseCardForm(w http.ResponseWriter, r *http.Request) (core.CardData, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpParse,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		s.redirectWithFlash(w, r, FlashError, "Invalid form submission.")
		return nil, false
	}
	data, err := ParseCardForm(r.PostForm)
	if err != nil {
		s.redirectWithFlash(w, r, FlashError, err.Error())
		return nil, false
	}
	return data, true
}

// failWithFlash maps a card operation error to a user message. Failures
// that are not caused by the submitted data are logged.
func (s *Server) failWithFlash(w http.ResponseWriter, r *http.Request, err error, op, name string) {
	var ve *core.ValidationError
	var msg string
	switch {
	case errors.As(err, &ve):
		msg = ve.Error()
	case errors.Is(err, core.ErrDuplicateName):
		msg = fmt.Sprintf("A card named '%s' already exists.", name)
	case errors.Is(err, core.ErrNotFound):
		msg = notFoundMessage(name)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Card operation failed", err, op,
			applog.NewFields().WithCard(name))
		msg = "Could not save your changes, please try again."
	}
	s.redirectWithFlash(w, r, FlashError, msg)
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	setFlash(w, kind, msg)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender,
			"template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func notFoundMessage(name string) string {
	return fmt.Sprintf("Card '%s' not found.", name)
}

func rawName(data core.CardData) string {
	name, _ := data[core.FieldCardName].(string)
	return name
}

// formRows lists a card's multipliers by category followed by blank rows.
func formRows(multipliers map[string]float64) []formRow {
	categories := make([]string, 0, len(multipliers))
	for c := range multipliers {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	rows := make([]formRow, 0, len(categories)+blankRows)
	for _, c := range categories {
		rows = append(rows, formRow{Category: c, Multiplier: formatNumber(multipliers[c])})
	}
	for i := 0; i < blankRows; i++ {
		rows = append(rows, formRow{})
	}
	return rows
}
