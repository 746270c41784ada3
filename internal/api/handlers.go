package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"habit-streaks/internal/service"
)

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.users.Register(r.Context(), req.Email, req.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"], "user id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.userFrom(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	task, err := h.tasks.CreateTask(r.Context(), user, service.TaskInput{
		Title:     req.Title,
		Category:  req.Category,
		Frequency: req.Frequency,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	groups, err := h.tasks.ListByDueDate(r.Context(), user)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAgendaResponse(groups))
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	taskID, err := parseID(mux.Vars(r)["id"], "task id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), user, taskID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (h *handler) renameTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(mux.Vars(r)["id"], "task id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req renameTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.userFrom(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	task, err := h.tasks.RenameTask(r.Context(), user, taskID, req.Title)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	taskID, err := parseID(mux.Vars(r)["id"], "task id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), user, taskID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) taskHistory(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	taskID, err := parseID(mux.Vars(r)["id"], "task id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	completions, err := h.tasks.History(r.Context(), user, taskID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := make([]historyItemResponse, 0, len(completions))
	for _, c := range completions {
		resp = append(resp, historyItemResponse{ID: c.ID, CompletedAt: c.CompletedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) completeOccurrence(w http.ResponseWriter, r *http.Request) {
	occID, err := parseID(mux.Vars(r)["id"], "occurrence id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.userFrom(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var result *service.CompletionResult
	if req.Version != nil {
		result, err = h.tasks.CompleteSeenOccurrence(r.Context(), user, occID, *req.Version)
	} else {
		result, err = h.tasks.CompleteOccurrence(r.Context(), user, occID)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCompletionResponse(result))
}

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	categories, err := h.categories.List(r.Context(), user)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name, Tasks: c.Tasks})
	}
	writeJSON(w, http.StatusOK, resp)
}
