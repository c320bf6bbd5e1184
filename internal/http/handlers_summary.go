package http

import (
	"net/http"

	"finboard/internal/finance"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "summary", err)
		return
	}
	summary, err := s.svc.Finance.ComputeFinancialSummary(r.Context(), uid)
	if err != nil {
		writeError(w, r, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(summary))
}

func (s *Server) handleEscapeProgress(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "escape_progress", err)
		return
	}
	progress, err := s.svc.Finance.ComputeEscapeProgress(r.Context(), uid)
	if err != nil {
		writeError(w, r, "escape_progress", err)
		return
	}
	writeJSON(w, http.StatusOK, newEscapeResponse(progress))
}

func (s *Server) handleQuadrants(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "quadrants", err)
		return
	}
	breakdown, err := s.svc.Finance.Quadrants(r.Context(), uid)
	if err != nil {
		writeError(w, r, "quadrants", err)
		return
	}
	writeJSON(w, http.StatusOK, newQuadrantResponse(breakdown))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "insights", err)
		return
	}
	report, err := s.svc.Finance.Insights(r.Context(), uid)
	if err != nil {
		writeError(w, r, "insights", err)
		return
	}
	writeJSON(w, http.StatusOK, newInsightsResponse(report))
}

// Net worth

func (s *Server) handleNetWorthHistory(w http.ResponseWriter, r *http.Request) {
	const op = "networth_history"
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	period, err := finance.ParseHistoryPeriod(NewQueryParser(r).String("period", ""))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	history, err := s.svc.Snapshots.History(r.Context(), uid, period)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":    period,
		"snapshots": mapSlice(history, newSnapshotResponse),
	})
}

func (s *Server) handleNetWorthPerformance(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "networth_performance", err)
		return
	}
	perf, err := s.svc.Snapshots.Performance(r.Context(), uid)
	if err != nil {
		writeError(w, r, "networth_performance", err)
		return
	}
	writeJSON(w, http.StatusOK, newPerformanceResponse(perf))
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "create_snapshot", err)
		return
	}
	snap, err := s.svc.Snapshots.CreateSnapshot(r.Context(), uid)
	if err != nil {
		writeError(w, r, "create_snapshot", err)
		return
	}
	writeJSON(w, http.StatusCreated, newSnapshotResponse(snap))
}
