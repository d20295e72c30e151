package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mindtype-hq/mindtype/internal/assessment"
	authmw "github.com/mindtype-hq/mindtype/internal/auth/middleware"
	"github.com/mindtype-hq/mindtype/internal/events"
	"github.com/mindtype-hq/mindtype/internal/store"
)

type scoreRequest struct {
	SessionID   string                 `json:"session_id"`
	Responses   []assessment.Response  `json:"responses"`
	Methodology assessment.Methodology `json:"methodology"`
	IsInterim   bool                   `json:"is_interim"`
}

type scoreResponse struct {
	Success bool                      `json:"success"`
	Result  *assessment.ScoringResult `json:"result,omitempty"`
	Errors  []assessment.Issue        `json:"errors,omitempty"`
}

// Score handles POST /api/assessment/score. Validation failures come back
// as a structured issue list with success=false, not as an HTTP error: the
// caller decides whether to block submission.
func (h *Handlers) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	responses := assessment.Sanitize(req.Responses)

	if req.IsInterim {
		// The interim path tolerates missing dimension tags (they are
		// assigned positionally) and fixes the methodology itself.
		if len(responses) == 0 {
			writeJSON(w, http.StatusOK, scoreResponse{Success: false, Errors: []assessment.Issue{{
				Field: "responses", Code: assessment.CodeEmptyResponses, Message: "response set is empty",
			}}})
			return
		}
		h.respondWithResult(r.Context(), w, req.SessionID, responses, assessment.MethodologyScenarios, true)
		return
	}

	report := assessment.Validate(responses, req.Methodology)
	if !report.Valid {
		writeJSON(w, http.StatusOK, scoreResponse{Success: false, Errors: report.Issues})
		return
	}
	h.respondWithResult(r.Context(), w, req.SessionID, responses, req.Methodology, false)
}

func (h *Handlers) respondWithResult(ctx context.Context, w http.ResponseWriter, sessionID string, responses []assessment.Response, methodology assessment.Methodology, interim bool) {
	key := store.CalcKey(sessionID, responses, methodology, interim)
	if cached, ok := h.Cache.Get(key); ok {
		writeJSON(w, http.StatusOK, scoreResponse{Success: true, Result: &cached})
		return
	}

	var result assessment.ScoringResult
	if interim {
		result = assessment.CalculateInterim(sessionID, responses)
	} else {
		result = assessment.Calculate(sessionID, responses, methodology, false)
	}
	h.Cache.Put(key, result)

	subject := authmw.SubjectFromContext(ctx)
	h.Sessions.Events().Append(ctx, events.TypeScoringCompleted, sessionID, map[string]any{
		"mbti_type": result.MBTIType,
		"interim":   result.IsInterim,
		"subject":   subject,
	})
	h.Logger.Info("scored response set",
		zap.String("session_id", sessionID),
		zap.String("subject", subject),
		zap.String("mbti_type", result.MBTIType),
		zap.Bool("interim", interim))

	writeJSON(w, http.StatusOK, scoreResponse{Success: true, Result: &result})
}
