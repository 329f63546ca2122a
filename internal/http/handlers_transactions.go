package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// transactionResponse is the JSON shape of a stored transaction.
type transactionResponse struct {
	ID          string               `json:"id"`
	Amount      core.Money           `json:"amount"`
	Display     string               `json:"display"`
	Description string               `json:"description"`
	Date        string               `json:"date"`
	Category    string               `json:"category"`
	Color       string               `json:"color"`
	Type        core.TransactionType `json:"type"`
}

type categoryResponse struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Color  string     `json:"color"`
	Budget core.Money `json:"budget"`
}

func (s *Server) toResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount,
		Display:     tx.Amount.String(),
		Description: tx.Description,
		Date:        tx.Date.Format("2006-01-02"),
		Category:    tx.Category,
		Color:       s.transactions.Catalog().ColorFor(tx.Category),
		Type:        tx.Type,
	}
}

// handleListTransactions returns transactions newest first, optionally
// narrowed to one month (?year=&month=) and one type (?type=).
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	typ, err := ParseTypeFilter(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var period *analytics.Period
	if query.Has("year") || query.Has("month") {
		params, err := ParseMonthParams(query, s.now())
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		p := analytics.MonthOf(params.Reference(s.now().Location()))
		period = &p
	}

	out := make([]transactionResponse, 0)
	for _, tx := range s.transactions.List() {
		if typ != "" && tx.Type != typ {
			continue
		}
		if period != nil && !period.Contains(tx.Date) {
			continue
		}
		out = append(out, s.toResponse(tx))
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Data(s.toResponse(tx)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTransactionRequest(r, s.location())
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	tx, err := s.transactions.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		Data(s.toResponse(tx)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTransactionRequest(r, s.location())
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	tx, err := s.transactions.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(s.toResponse(tx)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleCategories lists the catalog, or the categories offered for ?type=.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	typ, err := ParseTypeFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	catalog := s.transactions.Catalog()
	if typ != "" {
		catalog = catalog.ForType(typ)
	}
	out := make([]categoryResponse, len(catalog))
	for i, c := range catalog {
		out[i] = categoryResponse{ID: c.ID, Name: c.Name, Color: c.Color, Budget: c.Budget}
	}
	NewJSONResponse().Data(out).Write(w)
}

// writeError maps err to a response. Only unexpected failures are logged as
// errors; client mistakes show up in the request log with their status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var be *bodyError
	if errors.As(err, &be) {
		BadRequestError(be.Error()).Write(w)
		return
	}
	resp := FromError(err)
	if resp.StatusCode() == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, nil)
	}
	resp.Write(w)
}

func (s *Server) location() *time.Location {
	return s.now().Location()
}
