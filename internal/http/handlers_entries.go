package http

import (
	"context"
	"net/http"

	"finboard/internal/core"
)

// Incomes

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_incomes", err)
		return
	}
	list, err := s.svc.Entries.ListIncomes(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_incomes", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, newIncomeResponse))
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	s.saveIncome(w, r, "", http.StatusCreated)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	s.saveIncome(w, r, pathID(r), http.StatusOK)
}

func (s *Server) saveIncome(w http.ResponseWriter, r *http.Request, id string, status int) {
	const op = "save_income"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req incomeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	e, err := req.toDomain(id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var saved core.IncomeEntry
	if id == "" {
		saved, err = s.svc.Entries.CreateIncome(r.Context(), uid, e)
	} else {
		saved, err = s.svc.Entries.UpdateIncome(r.Context(), uid, e)
	}
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, status, newIncomeResponse(saved))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, "delete_income", s.svc.Entries.DeleteIncome)
}

// Expenses

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_expenses", err)
		return
	}
	list, err := s.svc.Entries.ListExpenses(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, newExpenseResponse))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	s.saveExpense(w, r, "", http.StatusCreated)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	s.saveExpense(w, r, pathID(r), http.StatusOK)
}

func (s *Server) saveExpense(w http.ResponseWriter, r *http.Request, id string, status int) {
	const op = "save_expense"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	e, err := req.toDomain(id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var saved core.ExpenseEntry
	if id == "" {
		saved, err = s.svc.Entries.CreateExpense(r.Context(), uid, e)
	} else {
		saved, err = s.svc.Entries.UpdateExpense(r.Context(), uid, e)
	}
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, status, newExpenseResponse(saved))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, "delete_expense", s.svc.Entries.DeleteExpense)
}

// Assets

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_assets", err)
		return
	}
	list, err := s.svc.Entries.ListAssets(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_assets", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, newAssetResponse))
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	s.saveAsset(w, r, "", http.StatusCreated)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	s.saveAsset(w, r, pathID(r), http.StatusOK)
}

func (s *Server) saveAsset(w http.ResponseWriter, r *http.Request, id string, status int) {
	const op = "save_asset"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req assetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	a, err := req.toDomain(id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var saved core.Asset
	if id == "" {
		saved, err = s.svc.Entries.CreateAsset(r.Context(), uid, a)
	} else {
		saved, err = s.svc.Entries.UpdateAsset(r.Context(), uid, a)
	}
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, status, newAssetResponse(saved))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, "delete_asset", s.svc.Entries.DeleteAsset)
}

// Liabilities

func (s *Server) handleListLiabilities(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_liabilities", err)
		return
	}
	list, err := s.svc.Entries.ListLiabilities(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_liabilities", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, newLiabilityResponse))
}

func (s *Server) handleCreateLiability(w http.ResponseWriter, r *http.Request) {
	s.saveLiability(w, r, "", http.StatusCreated)
}

func (s *Server) handleUpdateLiability(w http.ResponseWriter, r *http.Request) {
	s.saveLiability(w, r, pathID(r), http.StatusOK)
}

func (s *Server) saveLiability(w http.ResponseWriter, r *http.Request, id string, status int) {
	const op = "save_liability"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req liabilityRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	l, err := req.toDomain(id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var saved core.Liability
	if id == "" {
		saved, err = s.svc.Entries.CreateLiability(r.Context(), uid, l)
	} else {
		saved, err = s.svc.Entries.UpdateLiability(r.Context(), uid, l)
	}
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, status, newLiabilityResponse(saved))
}

func (s *Server) handleDeleteLiability(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, "delete_liability", s.svc.Entries.DeleteLiability)
}

// deleteEntry runs del for the {id} path parameter and answers 204.
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request, op string, del func(ctx context.Context, userID, id string) error) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	if err := del(r.Context(), uid, pathID(r)); err != nil {
		writeError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
