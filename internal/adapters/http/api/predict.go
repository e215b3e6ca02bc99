package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/scorecast/internal/app"
	"github.com/okian/scorecast/internal/domain/features"
	"github.com/okian/scorecast/pkg/logger"
	"github.com/okian/scorecast/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// PredictDependencies defines the interface for prediction dependencies.
type PredictDependencies interface {
	Predict(ctx context.Context, st features.MatchState) (service.Response, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// predictRequest mirrors the OpenAPI schema for POST /predict. Pointers
// distinguish a missing field from a zero value.
type predictRequest struct {
	BattingTeam  *string  `json:"batting_team"`
	BowlingTeam  *string  `json:"bowling_team"`
	City         *string  `json:"city"`
	CurrentScore *int     `json:"current_score"`
	Overs        *float64 `json:"overs"`
	Wickets      *int     `json:"wickets"`
	BatsmenLeft  *int     `json:"batsmen_left"`
	LastFive     *int     `json:"last_five"`
}

func (p predictRequest) state() (features.MatchState, error) {
	switch {
	case p.BattingTeam == nil:
		return features.MatchState{}, &features.FieldError{Field: "batting_team", Reason: "field required"}
	case p.BowlingTeam == nil:
		return features.MatchState{}, &features.FieldError{Field: "bowling_team", Reason: "field required"}
	case p.City == nil:
		return features.MatchState{}, &features.FieldError{Field: "city", Reason: "field required"}
	case p.CurrentScore == nil:
		return features.MatchState{}, &features.FieldError{Field: "current_score", Reason: "field required"}
	case p.Overs == nil:
		return features.MatchState{}, &features.FieldError{Field: "overs", Reason: "field required"}
	case p.Wickets == nil:
		return features.MatchState{}, &features.FieldError{Field: "wickets", Reason: "field required"}
	case p.BatsmenLeft == nil:
		return features.MatchState{}, &features.FieldError{Field: "batsmen_left", Reason: "field required"}
	case p.LastFive == nil:
		return features.MatchState{}, &features.FieldError{Field: "last_five", Reason: "field required"}
	}
	return features.MatchState{
		BattingTeam:  *p.BattingTeam,
		BowlingTeam:  *p.BowlingTeam,
		City:         *p.City,
		CurrentScore: *p.CurrentScore,
		Overs:        *p.Overs,
		Wickets:      *p.Wickets,
		BatsmenLeft:  *p.BatsmenLeft,
		LastFive:     *p.LastFive,
	}, nil
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		var sizeErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			fe := &features.FieldError{Field: typeErr.Field, Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
			h.rejectField(w, op, fe)
		case errors.As(err, &sizeErr):
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("empty body")))
		default:
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		}
		return
	}

	st, err := req.state()
	if err != nil {
		var fe *features.FieldError
		errors.As(err, &fe)
		h.rejectField(w, op, fe)
		return
	}

	resp, err := h.deps.Predict(ctx, st)
	if err != nil {
		var fe *features.FieldError
		switch {
		case errors.As(err, &fe):
			h.rejectField(w, op, fe)
		case errors.Is(err, service.ErrNotStarted):
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		default:
			logger.Get().Error(ctx, "prediction failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *PredictHandler) rejectField(w http.ResponseWriter, op string, fe *features.FieldError) {
	field := fe.Field
	if field == "" {
		field = "body"
	}
	metrics.RecordValidationFailure(field)
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Code:    "validation_error",
		Message: WrapKind(op, ErrValidation, fe).Error(),
		Field:   fe.Field,
	})
}
