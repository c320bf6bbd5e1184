package http

import (
	"net/http"

	"finboard/internal/goals"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_goals", err)
		return
	}
	list, err := s.svc.Entries.ListGoals(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_goals", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, newGoalResponse))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	const op = "create_goal"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	g, err := req.toDomain()
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	created, err := s.svc.Entries.CreateGoal(r.Context(), uid, g)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalResponse(created))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, "delete_goal", s.svc.Entries.DeleteGoal)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "goal_progress", err)
		return
	}
	report, err := s.svc.Finance.GoalProgress(r.Context(), uid)
	if err != nil {
		writeError(w, r, "goal_progress", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(report, newGoalProgressResponse))
}

func (s *Server) handleGoalTotals(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "goal_totals", err)
		return
	}
	totals, err := s.svc.Finance.GoalTotals(r.Context(), uid)
	if err != nil {
		writeError(w, r, "goal_totals", err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalTotalsResponse(totals))
}

// handleUpdateGoalProgress sets a goal's current amount by hand.
func (s *Server) handleUpdateGoalProgress(w http.ResponseWriter, r *http.Request) {
	const op = "update_goal_progress"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var req progressRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	current, err := ParseAmountField("current_amount", req.CurrentAmount)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	g, err := s.svc.Finance.UpdateGoalProgress(r.Context(), uid, pathID(r), current)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(g))
}

// handlePassiveIncomeGoal resolves the passive income goal, creating it when
// the user has expenses but no goal yet.
func (s *Server) handlePassiveIncomeGoal(w http.ResponseWriter, r *http.Request) {
	const op = "passive_income_goal"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	g, ok, err := s.svc.Finance.PassiveIncomeGoal(r.Context(), uid)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	if !ok {
		NotFoundError("no passive income goal: add recurring expenses first").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(g))
}

// handlePassiveIncomeProgress runs the coordinator. A skip is a normal
// answer, not an error.
func (s *Server) handlePassiveIncomeProgress(w http.ResponseWriter, r *http.Request) {
	const op = "passive_income_progress"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var req passiveProgressRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(w, r, &req); err != nil {
			writeError(w, r, op, err)
			return
		}
	}

	var decision goals.Decision
	if req.PassiveIncome == nil {
		decision, err = s.svc.Finance.RefreshPassiveIncomeGoal(r.Context(), uid)
	} else {
		passive, perr := ParseAmountField("passive_income", *req.PassiveIncome)
		if perr != nil {
			writeError(w, r, op, perr)
			return
		}
		decision, err = s.svc.Finance.MaybeUpdatePassiveIncomeGoal(r.Context(), uid, passive)
	}
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newDecisionResponse(decision))
}
