// Package probe drives a running scorecast service with generated match
// states and checks the responses.
package probe

import (
	"time"

	"github.com/okian/scorecast/internal/domain/features"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of match states to submit
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; zero picks a random one
	OutputFile string        // Optional JSON report path
	LogFile    string        // Optional log file
	Verbose    bool          // Log every response
}

// MatchState is the request body for POST /predict.
type MatchState struct {
	BattingTeam  string  `json:"batting_team"`
	BowlingTeam  string  `json:"bowling_team"`
	City         string  `json:"city"`
	CurrentScore int     `json:"current_score"`
	Overs        float64 `json:"overs"`
	Wickets      int     `json:"wickets"`
	BatsmenLeft  int     `json:"batsmen_left"`
	LastFive     int     `json:"last_five"`
}

func (m MatchState) domain() features.MatchState {
	return features.MatchState{
		BattingTeam:  m.BattingTeam,
		BowlingTeam:  m.BowlingTeam,
		City:         m.City,
		CurrentScore: m.CurrentScore,
		Overs:        m.Overs,
		Wickets:      m.Wickets,
		BatsmenLeft:  m.BatsmenLeft,
		LastFive:     m.LastFive,
	}
}

// PredictResponse is the decoded success body of POST /predict.
type PredictResponse struct {
	Status      string         `json:"status"`
	Predictions map[string]any `json:"predictions"`
	Metadata    struct {
		CRR            float64 `json:"crr"`
		BallsRemaining int     `json:"balls_remaining"`
	} `json:"metadata"`
}

// ModelStats counts one model's outcomes across the run.
type ModelStats struct {
	Numeric int     `json:"numeric"`
	Errors  int     `json:"errors"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Sum     float64 `json:"sum"`
}

// Stats holds run statistics.
type Stats struct {
	RunID            string                 `json:"run_id"`
	Seed             uint64                 `json:"seed"`
	Generated        int                    `json:"generated"`
	Submitted        int                    `json:"submitted"`
	Succeeded        int                    `json:"succeeded"`
	Failed           int                    `json:"failed"`
	MetadataMismatch int                    `json:"metadata_mismatch"`
	ModelsLoaded     int                    `json:"models_loaded"`
	Models           map[string]*ModelStats `json:"models"`
	StartTime        time.Time              `json:"start_time"`
	EndTime          time.Time              `json:"end_time"`
	Duration         time.Duration          `json:"duration_ns"`
}
