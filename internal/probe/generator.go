package probe

import (
	"math/rand/v2"

	"github.com/okian/scorecast/internal/domain/features"
)

// Teams with historical data behind the deployed models.
var Teams = []string{
	"Australia", "Bangladesh", "England", "India",
	"New Zealand", "Pakistan", "South Africa", "Sri Lanka",
	"West Indies", "Afghanistan", "Ireland", "Zimbabwe",
}

// Cities that host T20 internationals.
var Cities = []string{
	"Mumbai", "Colombo", "Dubai", "Melbourne", "Sydney", "London",
	"Lahore", "Johannesburg", "Auckland", "Dhaka", "Bridgetown", "Delhi",
}

// Generator produces valid, plausible match states.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns one match state. Overs are whole balls (x.0 to x.5), the
// last-five total never exceeds the score, and batsmen left tracks wickets.
func (g *Generator) Next() MatchState {
	bat := g.rng.IntN(len(Teams))
	bowl := g.rng.IntN(len(Teams) - 1)
	if bowl >= bat {
		bowl++
	}

	balls := g.rng.IntN(features.BallsPerInnings + 1)
	overs := float64(balls/features.BallsPerOver) + float64(balls%features.BallsPerOver)/10

	wickets := 0
	if balls > 0 {
		wickets = g.rng.IntN(min(features.MaxWickets, balls/12+2) + 1)
		wickets = min(wickets, features.MaxWickets)
	}

	score := int(float64(balls) * (0.9 + g.rng.Float64()*0.8))
	lastFive := min(score, g.rng.IntN(70))

	return MatchState{
		BattingTeam:  Teams[bat],
		BowlingTeam:  Teams[bowl],
		City:         Cities[g.rng.IntN(len(Cities))],
		CurrentScore: score,
		Overs:        overs,
		Wickets:      wickets,
		BatsmenLeft:  features.MaxWickets - wickets,
		LastFive:     lastFive,
	}
}

// Batch returns n match states.
func (g *Generator) Batch(n int) []MatchState {
	out := make([]MatchState, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}
