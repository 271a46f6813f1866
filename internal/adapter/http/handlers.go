package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
	"github.com/simaogato/autofund-backend/internal/usecase/schedule"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	views, err := s.schedules.List(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := make([]scheduleResponse, 0, len(views))
	for i := range views {
		resp = append(resp, toScheduleResponse(&views[i].Schedule, views[i].Goal))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GoalID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "goalId is required")
		return
	}
	cadence, err := domain.ParseCadence(req.Frequency)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	created, err := s.schedules.Create(r.Context(), schedule.CreateInput{
		UserID:  userID,
		GoalID:  req.GoalID,
		Amount:  req.Amount,
		Cadence: cadence,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(created, nil))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := schedule.UpdateInput{ID: id, UserID: userID, Amount: req.Amount, Active: req.IsActive}
	if req.Frequency != nil {
		cadence, err := domain.ParseCadence(*req.Frequency)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		input.Cadence = &cadence
	}

	updated, err := s.schedules.Update(r.Context(), input)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(updated, nil))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.schedules.Delete(r.Context(), id, userID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Auto-transfer deleted successfully"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	query := r.URL.Query()

	var goalID *uuid.UUID
	if raw := query.Get("goalId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid goalId")
			return
		}
		goalID = &id
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeDomainError(w, r, domain.ErrInvalidLimit)
			return
		}
		limit = n
	}

	entries, err := s.history.History(r.Context(), userID, goalID, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toHistoryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	summary, err := s.runner.Run(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if len(summary.Results) == 0 {
		writeJSON(w, http.StatusOK, executeResponse{Message: "No pending transfers", Results: []domain.TransferResult{}})
		return
	}
	writeJSON(w, http.StatusOK, executeResponse{
		Message:  "Transfers executed",
		Executed: summary.Executed,
		Results:  summary.Results,
	})
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GoalID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "goalId is required")
		return
	}

	out, err := s.runner.Contribute(r.Context(), coordinator.ContributeInput{
		UserID: userID,
		GoalID: req.GoalID,
		Amount: req.Amount,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toManualResponse(out))
}
