package quiz

import "github.com/coachlingua/leadengine/internal/model"

// recommendations is the fixed program table keyed by level band.
// The content is marketing copy, not logic; focus areas are copied so callers
// cannot mutate the table.
var recommendations = map[model.LevelBand]model.Recommendation{
	model.BandA1A2: {
		ProgramName:     "Foundation Program",
		DurationLabel:   "6 months, 2 sessions/week",
		FocusAreas:      []string{"Core vocabulary", "Everyday conversation", "Pronunciation basics"},
		ExpectedOutcome: "Hold simple workplace conversations with confidence",
	},
	model.BandB1: {
		ProgramName:     "Momentum Program",
		DurationLabel:   "4 months, 2 sessions/week",
		FocusAreas:      []string{"Fluency building", "Professional vocabulary", "Email writing"},
		ExpectedOutcome: "Handle meetings and written communication independently",
	},
	model.BandB2: {
		ProgramName:     "Professional Edge Program",
		DurationLabel:   "3 months, 1-2 sessions/week",
		FocusAreas:      []string{"Negotiation language", "Presentations", "Idiomatic usage"},
		ExpectedOutcome: "Lead discussions and present to international audiences",
	},
	model.BandC1C2: {
		ProgramName:     "Mastery Program",
		DurationLabel:   "2 months, 1 session/week",
		FocusAreas:      []string{"Nuance and register", "Public speaking", "Industry-specific polish"},
		ExpectedOutcome: "Operate at near-native level in any professional setting",
	},
}

// Recommend returns the static program record for a level band.
func Recommend(band model.LevelBand) model.Recommendation {
	rec := recommendations[band]
	rec.FocusAreas = append([]string(nil), rec.FocusAreas...)
	return rec
}
