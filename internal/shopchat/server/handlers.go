package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/longkey1/shopchat/internal/shopchat/render"
	"github.com/longkey1/shopchat/internal/shopchat/widget"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Accepted bool             `json:"accepted"`
	Error    string           `json:"error,omitempty"`
	Messages []widget.Message `json:"messages"`
}

type messagesResponse struct {
	Busy      bool             `json:"busy"`
	Messages  []widget.Message `json:"messages"`
	Exchanges int              `json:"exchanges"`
}

// handleIndex serves the widget page with the browser's transcript
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controllerFor(w, r)

	page := render.Page{
		Title:          s.settings.Title,
		Welcome:        s.settings.Welcome,
		Placeholder:    "Ask about a product...",
		AskPath:        "/ask",
		StylesheetPath: "/static/widget.css",
		RefreshSeconds: s.settings.RefreshSeconds,
		Busy:           ctrl.Busy(),
		Messages:       ctrl.Messages(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.html.Page(w, page); err != nil {
		s.logger.Error().Err(err).Msg("failed to render index page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// handleAsk accepts a question from the page form or from JSON clients
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controllerFor(w, r)
	jsonClient := wantsJSON(r)

	var question string
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, askResponse{Error: "invalid JSON body", Messages: ctrl.Messages()})
			return
		}
		question = req.Question
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		question = r.FormValue("question")
	}

	done, err := ctrl.Dispatch(s.baseCtx, question)
	if err != nil {
		s.logger.Debug().Err(err).Msg("question dropped")
		outcome := "empty"
		if errors.Is(err, widget.ErrInFlight) {
			outcome = "in_flight"
		}
		s.metrics.questions.WithLabelValues(outcome).Inc()
		if !jsonClient {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		status := http.StatusBadRequest
		if errors.Is(err, widget.ErrInFlight) {
			status = http.StatusConflict
		}
		writeJSON(w, status, askResponse{Error: err.Error(), Messages: ctrl.Messages()})
		return
	}

	start := time.Now()
	go func() {
		err := <-done
		s.metrics.latency.Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.questions.WithLabelValues("failed").Inc()
			s.logger.Warn().Err(err).Msg("question failed")
			return
		}
		s.metrics.questions.WithLabelValues("answered").Inc()
	}()

	if !jsonClient {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusAccepted, askResponse{Accepted: true, Messages: ctrl.Messages()})
}

// handleMessages returns the browser's transcript as JSON
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controllerFor(w, r)
	writeJSON(w, http.StatusOK, messagesResponse{
		Busy:      ctrl.Busy(),
		Messages:  ctrl.Messages(),
		Exchanges: len(ctrl.Exchanges()),
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessionCount(),
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
