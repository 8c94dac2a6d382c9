package model

import "time"

// QuestionKind discriminates how a question is answered.
type QuestionKind string

const (
	// KindSingle is a single-select question (one option value).
	KindSingle QuestionKind = "single"
	// KindMulti is a multi-select question (a set of option values).
	KindMulti QuestionKind = "multi"
	// KindForm is a small named-fields record (e.g. name + email).
	KindForm QuestionKind = "form"
)

// Option is one selectable choice of a question. Weight is non-zero only on
// options of scored questions and contributes to the level-band average.
type Option struct {
	Value    string `json:"value"`
	LabelKey string `json:"label_key"`
	Weight   int    `json:"weight,omitempty"`
}

// FormField declares one sub-field of a form-kind question.
type FormField struct {
	Name     string `json:"name"`
	LabelKey string `json:"label_key"`
	Required bool   `json:"required"`
}

// QuestionDefinition describes one step of the questionnaire.
// IDs are unique within a questionnaire, option values within a question.
type QuestionDefinition struct {
	ID       string       `json:"id"`
	Kind     QuestionKind `json:"kind"`
	LabelKey string       `json:"label_key"`
	Required bool         `json:"required"`
	Scored   bool         `json:"scored"`
	Options  []Option     `json:"options,omitempty"`
	Fields   []FormField  `json:"fields,omitempty"`
}

// Answer is the tagged union of respondent answers. The concrete type matches
// the question's kind, so invalid shapes are unrepresentable.
type Answer interface {
	isAnswer()
}

// SingleAnswer holds the selected option value of a single-select question.
type SingleAnswer struct {
	Value string `json:"value"`
}

// MultiAnswer holds the selected option values of a multi-select question.
type MultiAnswer struct {
	Values []string `json:"values"`
}

// FormAnswer holds the sub-field values of a form-kind question.
type FormAnswer struct {
	Fields map[string]string `json:"fields"`
}

func (SingleAnswer) isAnswer() {}
func (MultiAnswer) isAnswer()  {}
func (FormAnswer) isAnswer()   {}

// Session is one respondent's pass through the questionnaire. It is owned by
// the caller; the engine only reads it and returns updated copies.
type Session struct {
	ID      string            `json:"id"`
	Step    int               `json:"step"`
	Answers map[string]Answer `json:"answers"`
}

// LevelBand is a CEFR-style proficiency bucket assigned from the average score.
type LevelBand string

const (
	BandA1A2 LevelBand = "A1-A2"
	BandB1   LevelBand = "B1"
	BandB2   LevelBand = "B2"
	BandC1C2 LevelBand = "C1-C2"
)

// Recommendation is the static program suggestion for a level band.
type Recommendation struct {
	ProgramName     string   `json:"program_name"`
	DurationLabel   string   `json:"duration_label"`
	FocusAreas      []string `json:"focus_areas"`
	ExpectedOutcome string   `json:"expected_outcome"`
}

// ScoreResult is the outcome of the level computation. It is a pure function
// of the scored answers: identical answers always produce an identical result.
type ScoreResult struct {
	LevelBand      LevelBand      `json:"level_band"`
	AverageScore   float64        `json:"average_score"`
	AnsweredScored int            `json:"answered_scored"`
	Complete       bool           `json:"complete"`
	Recommendation Recommendation `json:"recommendation"`
}

// LeadType discriminates where a generic lead came from.
type LeadType string

const (
	LeadTypeContact   LeadType = "contact"
	LeadTypeVideo     LeadType = "video"
	LeadTypeLevelTest LeadType = "level-test"
	LeadTypeDiscount  LeadType = "discount"
)

// Lead is a generic captured lead (contact form, video CTA, level-test
// result, discount popup).
type Lead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Discount  string    `json:"discount,omitempty"`
	Type      LeadType  `json:"type"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// Booking is a captured trial-lesson booking request.
type Booking struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Sector        string    `json:"sector"`
	EnglishLevel  string    `json:"english_level,omitempty"`
	Age           string    `json:"age"`
	PreferredDay  string    `json:"preferred_day"`
	PreferredTime string    `json:"preferred_time"`
	Message       string    `json:"message,omitempty"`
	Language      string    `json:"language"`
	CreatedAt     time.Time `json:"created_at"`
}

// CorporateQuote is a captured corporate training quote request.
type CorporateQuote struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"company_name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Sector      string    `json:"sector"`
	TeamSize    string    `json:"team_size"`
	Objectives  string    `json:"objectives"`
	Message     string    `json:"message,omitempty"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

// Testimonial is a published customer testimonial, stored per language.
type Testimonial struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Role      string `json:"role"`
	Quote     string `json:"quote"`
	Language  string `json:"language"`
	SortOrder int    `json:"sort_order"`
}

// ClientCategory distinguishes logo-wall entries.
type ClientCategory string

const (
	ClientRecognition ClientCategory = "recognition"
	ClientCompany     ClientCategory = "client"
)

// Client is a logo-wall entry (a client company or a press recognition).
type Client struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Category  ClientCategory `json:"category"`
	LogoURL   string         `json:"logo_url"`
	Featured  bool           `json:"featured"`
	SortOrder int            `json:"sort_order"`
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in a chatbot transcript.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is one chatbot conversation.
type ChatSession struct {
	ID         string         `json:"id"`
	Language   string         `json:"language"`
	IsComplete bool           `json:"is_complete"`
	Collected  *CollectedData `json:"collected_data,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CollectedData is the lead record the chatbot gathers turn by turn before
// the WhatsApp handoff.
type CollectedData struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	EnglishLevel string `json:"english_level"`
	Goal         string `json:"goal"`
	Urgency      string `json:"urgency"`
}
