package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"habit-streaks/internal/model"
	"habit-streaks/internal/service"
)

const maxBodyBytes = 1 << 20

// frequency accepts either a single weekday or a list of weekdays.
type frequency []string

func (f *frequency) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = frequency{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("frequency must be a weekday or a list of weekdays")
	}
	*f = many
	return nil
}

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type createTaskRequest struct {
	UserID    uint      `json:"user_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Frequency frequency `json:"frequency"`
}

type renameTaskRequest struct {
	UserID uint   `json:"user_id"`
	Title  string `json:"title"`
}

type completeRequest struct {
	UserID uint `json:"user_id"`
	// Version is the occurrence version the client last saw. Without it any current occurrence completes.
	Version *int `json:"version"`
}

type userResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type occurrenceResponse struct {
	ID        uint      `json:"occurrence_id"`
	Frequency string    `json:"frequency"`
	DueAt     time.Time `json:"due_at"`
	Version   int       `json:"version"`
}

type taskResponse struct {
	ID          uint                 `json:"id"`
	UserID      uint                 `json:"user_id"`
	Title       string               `json:"title"`
	Streak      int                  `json:"streak"`
	CreatedAt   time.Time            `json:"created_at"`
	Occurrences []occurrenceResponse `json:"occurrences"`
}

type agendaItemResponse struct {
	OccurrenceID uint      `json:"occurrence_id"`
	TaskID       uint      `json:"task_id"`
	Frequency    string    `json:"frequency"`
	DueAt        time.Time `json:"due_at"`
	Version      int       `json:"version"`
	Title        string    `json:"title"`
	Streak       int       `json:"streak"`
	Category     string    `json:"category,omitempty"`
	Current      bool      `json:"current"`
}

type completionResponse struct {
	OccurrenceID  uint      `json:"occurrence_id"`
	TaskID        uint      `json:"task_id"`
	Timing        string    `json:"timing"`
	Streak        int       `json:"streak"`
	PreviousDueAt time.Time `json:"previous_due_at"`
	NextDueAt     time.Time `json:"next_due_at"`
	Version       int       `json:"version"`
	CompletedAt   time.Time `json:"completed_at"`
}

type historyItemResponse struct {
	ID          uint      `json:"id"`
	CompletedAt time.Time `json:"completed_at"`
}

type categoryResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Tasks int64  `json:"tasks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newUserResponse(u *model.User) userResponse {
	resp := userResponse{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
	if u.Email != nil {
		resp.Email = *u.Email
	}
	return resp
}

func newTaskResponse(t *model.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Streak:      t.Streak,
		CreatedAt:   t.CreatedAt,
		Occurrences: make([]occurrenceResponse, 0, len(t.Occurrences)),
	}
	for _, occ := range t.Occurrences {
		resp.Occurrences = append(resp.Occurrences, occurrenceResponse{
			ID:        occ.ID,
			Frequency: occ.Frequency.String(),
			DueAt:     occ.DueAt,
			Version:   occ.Version,
		})
	}
	return resp
}

// newAgendaResponse keys groups by YYYY-MM-DD. encoding/json sorts map keys, so dates come out in order.
func newAgendaResponse(groups []service.DueDateGroup) map[string][]agendaItemResponse {
	resp := make(map[string][]agendaItemResponse, len(groups))
	for _, group := range groups {
		items := make([]agendaItemResponse, 0, len(group.Items))
		for _, item := range group.Items {
			items = append(items, agendaItemResponse{
				OccurrenceID: item.OccurrenceID,
				TaskID:       item.TaskID,
				Frequency:    item.Frequency.String(),
				DueAt:        item.DueAt,
				Version:      item.Version,
				Title:        item.Title,
				Streak:       item.Streak,
				Category:     item.Category,
				Current:      item.Current,
			})
		}
		resp[group.Key()] = items
	}
	return resp
}

func newCompletionResponse(r *service.CompletionResult) completionResponse {
	return completionResponse{
		OccurrenceID:  r.Occurrence.ID,
		TaskID:        r.Occurrence.TaskID,
		Timing:        string(r.Timing),
		Streak:        r.Streak,
		PreviousDueAt: r.PreviousDueAt,
		NextDueAt:     r.Occurrence.DueAt,
		Version:       r.Occurrence.Version,
		CompletedAt:   r.Completion.CompletedAt,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func errValidation(msg string) error {
	return fmt.Errorf("%w: %s", service.ErrValidation, msg)
}

func parseID(raw, what string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", service.ErrValidation, what)
	}
	return uint(id), nil
}
