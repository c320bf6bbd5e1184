package http

import (
	"net/http"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_budgets", err)
		return
	}
	list, err := s.svc.Entries.ListBudgets(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_budgets", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, newBudgetResponse))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	const op = "create_budget"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	b, err := req.toDomain()
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	created, err := s.svc.Entries.CreateBudget(r.Context(), uid, b)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBudgetResponse(created))
}

// handleCurrentBudget answers 404 when no budget covers today.
func (s *Server) handleCurrentBudget(w http.ResponseWriter, r *http.Request) {
	const op = "current_budget"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	b, ok, err := s.svc.Finance.CurrentBudget(r.Context(), uid)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	if !ok {
		NotFoundError("no budget covers today").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, "delete_budget", s.svc.Entries.DeleteBudget)
}

func (s *Server) handleAddBudgetCategory(w http.ResponseWriter, r *http.Request) {
	const op = "add_budget_category"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	c, err := req.toDomain()
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	created, err := s.svc.Entries.AddBudgetCategory(r.Context(), uid, pathID(r), c)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPlainCategoryResponse(created))
}

func (s *Server) handleUpdateCategorySpent(w http.ResponseWriter, r *http.Request) {
	const op = "update_category_spent"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req spentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	spent, err := ParseAmountField("spent_amount", req.SpentAmount)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	updated, err := s.svc.Entries.UpdateCategorySpent(r.Context(), uid, pathID(r), spent)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlainCategoryResponse(updated))
}

func (s *Server) handleDeleteBudgetCategory(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, "delete_budget_category", s.svc.Entries.DeleteBudgetCategory)
}
