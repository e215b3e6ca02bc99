// Package features derives the engineered feature record from a match state.
//
// The constants below describe the T20 format (20 overs of six balls, ten
// wickets). They are deliberately not configurable: the deployed models were
// trained on T20 innings only.
package features

import (
	"fmt"
	"math"
)

// Format constants for a T20 innings.
const (
	OversPerInnings = 20
	BallsPerOver    = 6
	BallsPerInnings = OversPerInnings * BallsPerOver
	MaxWickets      = 10
)

// Column names in the order the models were trained on.
const (
	ColBattingTeam  = "batting_team"
	ColBowlingTeam  = "bowling_team"
	ColCity         = "city"
	ColCurrentScore = "current_score"
	ColBallsLeft    = "balls_left"
	ColWicketsLeft  = "wickets_left"
	ColCRR          = "crr"
	ColLastFive     = "last_five"
	ColBatsmanLeft  = "batsman_left"
)

// Columns is the fixed model input schema.
var Columns = []string{
	ColBattingTeam,
	ColBowlingTeam,
	ColCity,
	ColCurrentScore,
	ColBallsLeft,
	ColWicketsLeft,
	ColCRR,
	ColLastFive,
	ColBatsmanLeft,
}

// MatchState is the in-progress innings submitted by a client.
type MatchState struct {
	BattingTeam  string
	BowlingTeam  string
	City         string
	CurrentScore int
	Overs        float64
	Wickets      int
	BatsmenLeft  int
	LastFive     int
}

// Record is the derived feature row passed to every model.
type Record struct {
	BattingTeam  string
	BowlingTeam  string
	City         string
	CurrentScore float64
	BallsLeft    float64
	WicketsLeft  float64
	CRR          float64
	LastFive     float64
	BatsmanLeft  float64
}

// Derive computes the feature record for s.
//
// The current run rate is defined as zero before the first over is bowled;
// this is a policy, not a fallback for a numeric error.
func Derive(s MatchState) (Record, error) {
	if math.IsNaN(s.Overs) || math.IsInf(s.Overs, 0) {
		return Record{}, fmt.Errorf("%w: overs is not a finite number", ErrDerive)
	}

	ballsLeft := BallsPerInnings - s.Overs*BallsPerOver

	var crr float64
	if s.Overs > 0 {
		crr = float64(s.CurrentScore) / s.Overs
	}

	return Record{
		BattingTeam:  s.BattingTeam,
		BowlingTeam:  s.BowlingTeam,
		City:         s.City,
		CurrentScore: float64(s.CurrentScore),
		BallsLeft:    ballsLeft,
		WicketsLeft:  float64(MaxWickets - s.Wickets),
		CRR:          crr,
		LastFive:     float64(s.LastFive),
		BatsmanLeft:  float64(s.BatsmenLeft),
	}, nil
}

// Numeric returns the value of a numeric column.
func (r Record) Numeric(col string) (float64, bool) {
	switch col {
	case ColCurrentScore:
		return r.CurrentScore, true
	case ColBallsLeft:
		return r.BallsLeft, true
	case ColWicketsLeft:
		return r.WicketsLeft, true
	case ColCRR:
		return r.CRR, true
	case ColLastFive:
		return r.LastFive, true
	case ColBatsmanLeft:
		return r.BatsmanLeft, true
	}
	return 0, false
}

// Categorical returns the value of a string column.
func (r Record) Categorical(col string) (string, bool) {
	switch col {
	case ColBattingTeam:
		return r.BattingTeam, true
	case ColBowlingTeam:
		return r.BowlingTeam, true
	case ColCity:
		return r.City, true
	}
	return "", false
}

// Metadata is the summary returned next to the predictions.
type Metadata struct {
	CRR            float64 `json:"crr"`
	BallsRemaining int     `json:"balls_remaining"`
}

// Summarize rounds the run rate to two decimals and truncates balls left
// toward zero.
func (r Record) Summarize() Metadata {
	return Metadata{
		CRR:            math.Round(r.CRR*100) / 100,
		BallsRemaining: int(r.BallsLeft),
	}
}
