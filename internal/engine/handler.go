package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aulaprep/backend/internal/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Area == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "area is required"})
		return
	}

	sess, err := h.service.CreateSession(userID, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create session"})
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, answers, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	if answers == nil {
		answers = []models.SessionAnswer{}
	}

	writeJSON(w, http.StatusOK, models.SessionDetailResponse{Session: *sess, Answers: answers})
}

// SubmitAnswer grades the learner's selection against the item bank and
// records the result. A null selected option (the item timed out or was
// left blank) is graded as incorrect.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.QuestionID == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "question_id is required"})
		return
	}

	question, err := h.service.GetQuestion(req.QuestionID)
	if err != nil {
		if errors.Is(err, models.ErrQuestionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load question"})
		return
	}

	correct := false
	if req.SelectedOptionID != nil {
		correct = question.CorrectOption(*req.SelectedOptionID)
	}

	rec, newLevel, xp, err := h.service.RecordAnswer(sess.ID, req.QuestionID, req.SelectedOptionID, correct, req.UsedHint)
	if err != nil {
		if errors.Is(err, models.ErrSessionCompleted) {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Session is already completed"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record answer"})
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitAnswerResponse{
		Correct:       rec.Correct,
		QuestionLevel: rec.QuestionLevel,
		OrderIndex:    rec.OrderIndex,
		NewLevel:      newLevel,
		XPAwarded:     xp,
		AnswerID:      rec.ID,
	})
}

func (h *Handler) NextItem(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	result, err := h.service.NextItem(sess.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to select next item"})
		return
	}

	writeJSON(w, http.StatusOK, nextItemResponse(result))
}

func (h *Handler) ForceFinish(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req models.ForceFinishRequest
	if r.Body != nil {
		// Body is optional; a bare POST finishes with the default reason.
		json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.service.ForceFinish(sess.ID, req.Reason)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to finish session"})
		return
	}

	writeJSON(w, http.StatusOK, nextItemResponse(result))
}

// ownedSession parses the path id, loads the session, and enforces that it
// belongs to the authenticated user. Foreign sessions read as not found.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (*models.Session, []models.SessionAnswer, bool) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return nil, nil, false
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID"})
		return nil, nil, false
	}

	sess, answers, err := h.service.GetSession(id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
			return nil, nil, false
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load session"})
		return nil, nil, false
	}
	if sess.UserID != userID {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return nil, nil, false
	}

	return sess, answers, true
}

func nextItemResponse(result *models.NextItemResult) models.NextItemResponse {
	resp := models.NextItemResponse{Finished: result.Finished}
	if result.Finished {
		score := result.Score
		resp.Score = &score
		resp.Reason = result.Reason
	} else if result.Question != nil {
		sq := result.Question.ToServable()
		resp.Question = &sq
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
