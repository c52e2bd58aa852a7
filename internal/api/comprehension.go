package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-course/internal/ai"
	"github.com/p-n-ai/pai-course/internal/comprehension"
)

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type extractRequest struct {
	URL string `json:"url"`
}

// askFrame is one websocket question. Source is "document" (default) or "video".
type askFrame struct {
	askRequest
	Source string `json:"source,omitempty"`
}

type answerFrame struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleDocUpload(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.uploadFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Comprehension.UploadDocument(up.Text))
}

func (s *Server) handleVideoExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.Comprehension.ExtractVideo(r.Context(), req.URL)
	if err != nil {
		respondError(w, r, err, http.StatusBadGateway, msgGenerationFailed)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAsk(src comprehension.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		answer, err := s.Comprehension.Ask(r.Context(), req.Question, req.SessionID, req.Text, src)
		if err != nil {
			respondError(w, r, err, http.StatusBadGateway, msgGenerationFailed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	}
}

// handleAskSocket answers one question per frame until the client closes.
func (s *Server) handleAskSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.AllowedOrigins),
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ctx := r.Context()
	for {
		var frame askFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, ctx.Err()) {
				slog.Debug("websocket read ended", "error", err)
			}
			return
		}

		src := comprehension.Document
		if frame.Source == string(comprehension.Video) {
			src = comprehension.Video
		}

		var reply answerFrame
		answer, err := s.Comprehension.Ask(ctx, frame.Question, frame.SessionID, frame.Text, src)
		switch {
		case err == nil:
			reply.Answer = answer
		case errors.Is(err, ai.ErrBudgetExceeded):
			reply.Error = msgBudgetExceeded
		case errors.Is(err, comprehension.ErrEmptyQuestion), errors.Is(err, comprehension.ErrEmptyText):
			reply.Error = err.Error()
		default:
			slog.Warn("websocket answer failed", "session_id", frame.SessionID, "error", err)
			reply.Error = msgGenerationFailed
		}

		if err := wsjson.Write(ctx, conn, reply); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// originPatterns turns CORS origins into the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
