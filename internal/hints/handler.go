package hints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aulaprep/backend/internal/engine"
	"github.com/aulaprep/backend/internal/models"
)

type Handler struct {
	service *Service
	engine  *engine.Service
}

func NewHandler(service *Service, eng *engine.Service) *Handler {
	return &Handler{service: service, engine: eng}
}

func (h *Handler) GetHint(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question ID"})
		return
	}

	question, err := h.engine.GetQuestion(id)
	if err != nil {
		if errors.Is(err, models.ErrQuestionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load question"})
		return
	}

	hint, err := h.service.HintFor(r.Context(), question)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Hint generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, models.HintResponse{QuestionID: id, Hint: hint})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
