package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"speech-training-service/internal/models"
	"speech-training-service/internal/service/training"
	"speech-training-service/internal/service/words"
)

// Multipart framing allowance on top of the audio limit.
const formOverhead = 1 << 20

const (
	defaultWordCount = 10
	maxWordCount     = 50
)

type startSessionRequest struct {
	ClientID     string `json:"clientId"`
	SpecialistID string `json:"specialistId"`
	Difficulty   string `json:"difficulty"`
	Age          int    `json:"age"`
}

func (h *handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid JSON body: %v", models.ErrValidation, err))
		return
	}

	out, err := h.trainer.Start(r.Context(), training.StartRequest{
		ClientID:     req.ClientID,
		SpecialistID: req.SpecialistID,
		Difficulty:   req.Difficulty,
		Age:          req.Age,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if out.Resumed {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/v1/sessions/"+out.SessionID)
	writeJSON(w, status, out.Messages)
}

func (h *handler) sessionState(w http.ResponseWriter, r *http.Request) {
	msg, err := h.trainer.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *handler) resumeSession(w http.ResponseWriter, r *http.Request) {
	out, err := h.trainer.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Messages)
}

func (h *handler) submitAudio(w http.ResponseWriter, r *http.Request) {
	audio, err := h.readAudio(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.trainer.SubmitAudio(r.Context(), chi.URLParam(r, "id"), audio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Messages)
}

func (h *handler) cancelSession(w http.ResponseWriter, r *http.Request) {
	msg, err := h.trainer.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

type wordsResponse struct {
	Age        int      `json:"age"`
	Difficulty string   `json:"difficulty"`
	Words      []string `json:"words"`
}

func (h *handler) listWords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	age, err := strconv.Atoi(q.Get("age"))
	if err != nil || age < training.MinAge || age > training.MaxAge {
		writeError(w, r, fmt.Errorf("%w: age must be between %d and %d", models.ErrValidation, training.MinAge, training.MaxAge))
		return
	}
	difficulty, err := words.ParseDifficulty(q.Get("difficulty"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	count := defaultWordCount
	if s := q.Get("count"); s != "" {
		count, err = strconv.Atoi(s)
		if err != nil || count < 1 || count > maxWordCount {
			writeError(w, r, fmt.Errorf("%w: count must be between 1 and %d", models.ErrValidation, maxWordCount))
			return
		}
	}

	list, err := h.words.Generate(r.Context(), age, difficulty, count)
	if err != nil {
		if !errors.Is(err, models.ErrValidation) {
			err = fmt.Errorf("%w: %w", models.ErrExternalService, err)
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wordsResponse{Age: age, Difficulty: difficulty, Words: list})
}

func (h *handler) listDifficulties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"difficulties": words.ListDifficulties()})
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	audio, err := h.readAudio(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	word := r.FormValue("word")

	a, err := h.trainer.Analyze(r.Context(), word, audio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// readAudio reads the "audio" part of a multipart form, or the raw body for
// any other content type. Bodies beyond the audio limit are rejected as
// validation errors.
func (h *handler) readAudio(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := h.maxAudioBytes + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var (
		audio []byte
		err   error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		audio, err = readFormFile(r)
	} else {
		audio, err = io.ReadAll(r.Body)
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, fmt.Errorf("%w: request body exceeds %d bytes", models.ErrValidation, limit)
	case err != nil:
		return nil, fmt.Errorf("%w: read audio: %v", models.ErrValidation, err)
	}
	return audio, nil
}

func readFormFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		return nil, fmt.Errorf("audio field: %w", err)
	}
	defer file.Close()
	return io.ReadAll(file)
}
