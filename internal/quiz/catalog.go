package quiz

import "github.com/coachlingua/leadengine/internal/model"

// Question ids of the level test. The three self-assessment questions are the
// scored subset; everything else qualifies the lead.
const (
	QSector    = "sector"
	QSelfLevel = "self_level"
	QListening = "listening"
	QSpeaking  = "speaking"
	QGoals     = "goals"
	QUrgency   = "urgency"
	QContact   = "contact"
)

// levelOptions builds the six-step self-assessment scale shared by the scored
// questions. Weights run 1 (absolute beginner) to 6 (near-native).
func levelOptions(prefix string) []model.Option {
	values := []string{"none", "basic", "elementary", "conversational", "fluent", "native"}
	opts := make([]model.Option, 0, len(values))
	for i, v := range values {
		opts = append(opts, model.Option{
			Value:    v,
			LabelKey: prefix + "." + v,
			Weight:   i + 1,
		})
	}
	return opts
}

// LevelTestQuestions returns the fixed seven-step level-test definition.
func LevelTestQuestions() []model.QuestionDefinition {
	return []model.QuestionDefinition{
		{
			ID:       QSector,
			Kind:     model.KindSingle,
			LabelKey: "Question.Sector",
			Required: true,
			Options: []model.Option{
				{Value: "technology", LabelKey: "Sector.Technology"},
				{Value: "finance", LabelKey: "Sector.Finance"},
				{Value: "healthcare", LabelKey: "Sector.Healthcare"},
				{Value: "manufacturing", LabelKey: "Sector.Manufacturing"},
				{Value: "hospitality", LabelKey: "Sector.Hospitality"},
				{Value: "education", LabelKey: "Sector.Education"},
				{Value: "other", LabelKey: "Sector.Other"},
			},
		},
		{
			ID:       QSelfLevel,
			Kind:     model.KindSingle,
			LabelKey: "Question.SelfLevel",
			Required: true,
			Scored:   true,
			Options:  levelOptions("SelfLevel"),
		},
		{
			ID:       QListening,
			Kind:     model.KindSingle,
			LabelKey: "Question.Listening",
			Required: true,
			Scored:   true,
			Options:  levelOptions("Listening"),
		},
		{
			ID:       QSpeaking,
			Kind:     model.KindSingle,
			LabelKey: "Question.Speaking",
			Required: true,
			Scored:   true,
			Options:  levelOptions("Speaking"),
		},
		{
			ID:       QGoals,
			Kind:     model.KindMulti,
			LabelKey: "Question.Goals",
			Required: true,
			Options: []model.Option{
				{Value: "career", LabelKey: "Goal.Career"},
				{Value: "meetings", LabelKey: "Goal.Meetings"},
				{Value: "interviews", LabelKey: "Goal.Interviews"},
				{Value: "travel", LabelKey: "Goal.Travel"},
				{Value: "certification", LabelKey: "Goal.Certification"},
				{Value: "relocation", LabelKey: "Goal.Relocation"},
			},
		},
		{
			ID:       QUrgency,
			Kind:     model.KindSingle,
			LabelKey: "Question.Urgency",
			Required: true,
			Options: []model.Option{
				{Value: "asap", LabelKey: "Urgency.ASAP"},
				{Value: "one_month", LabelKey: "Urgency.OneMonth"},
				{Value: "three_months", LabelKey: "Urgency.ThreeMonths"},
				{Value: "exploring", LabelKey: "Urgency.Exploring"},
			},
		},
		{
			ID:       QContact,
			Kind:     model.KindForm,
			LabelKey: "Question.Contact",
			Required: true,
			Fields: []model.FormField{
				{Name: "name", LabelKey: "Contact.Name", Required: true},
				{Name: "email", LabelKey: "Contact.Email", Required: true},
				{Name: "phone", LabelKey: "Contact.Phone"},
			},
		},
	}
}
