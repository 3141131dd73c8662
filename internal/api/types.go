package api

import "strings"

// Record is an intake record stored by the server.
type Record struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// StoredImage is an uploaded image as returned by the server.
type StoredImage struct {
	ID        int    `json:"id"`
	Image     string `json:"image"` // URL of the stored file
	Note      string `json:"note"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at"`
}

// FileName returns the last path segment of the image URL.
func (i StoredImage) FileName() string {
	name := i.Image
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// Image is an image to upload.
type Image struct {
	Name      string
	MediaType string
	Data      []byte
}

// TextNoteResult is the response of SubmitTextNote.
type TextNoteResult struct {
	Message string `json:"message"`
	Record  Record `json:"record"`
}

// RecordedContent returns the content the server recorded.
func (r *TextNoteResult) RecordedContent() string {
	return r.Record.Content
}

// ImageBatchResult is the response of SubmitImageBatch.
type ImageBatchResult struct {
	IngestedCount int           `json:"ingested_count"`
	Images        []StoredImage `json:"images"`
	Record        Record        `json:"record"`
}

// RecordedContent returns the content the server recorded.
func (r *ImageBatchResult) RecordedContent() string {
	return r.Record.Content
}

// ImageRefs returns the file names of the stored images.
func (r *ImageBatchResult) ImageRefs() []string {
	return imageRefs(r.Images)
}

// CombinedBatchResult is the response of SubmitCombinedBatch.
type CombinedBatchResult struct {
	Images []StoredImage `json:"images"`
	Record Record        `json:"record"`
}

// RecordedContent returns the content the server recorded.
func (r *CombinedBatchResult) RecordedContent() string {
	return r.Record.Content
}

// ImageRefs returns the file names of the stored images.
func (r *CombinedBatchResult) ImageRefs() []string {
	return imageRefs(r.Images)
}

func imageRefs(images []StoredImage) []string {
	refs := make([]string, 0, len(images))
	for _, img := range images {
		refs = append(refs, img.FileName())
	}
	return refs
}

// Evaluation is the daily nutrition score produced by the server.
type Evaluation struct {
	Grade         string `json:"grade"`
	ScoreMacro    int    `json:"score_macro"`
	ScoreDisease  int    `json:"score_disease"`
	ScoreGoal     int    `json:"score_goal"`
	ScoreTotal    int    `json:"score_total"`
	ReasonMacro   string `json:"reason_macro"`
	ReasonDisease string `json:"reason_disease"`
	ReasonGoal    string `json:"reason_goal"`
	AdviceMacro   string `json:"advice_macro"`
	AdviceDisease string `json:"advice_disease"`
	AdviceGoal    string `json:"advice_goal"`
	IntakeSummary string `json:"intake_summary"`
	EvaluatedDate string `json:"evaluated_date"`
}

// User is the account summary returned on login.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// LoginResult is the response of Login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Conditions are the health conditions tracked on a profile.
type Conditions struct {
	Diabetes          bool `json:"has_diabetes"`
	Hypertension      bool `json:"has_hypertension"`
	Hyperlipidemia    bool `json:"has_hyperlipidemia"`
	Obesity           bool `json:"has_obesity"`
	MetabolicSyndrome bool `json:"has_metabolic_syndrome"`
	Gout              bool `json:"has_gout"`
	FattyLiver        bool `json:"has_fatty_liver"`
	Thyroid           bool `json:"has_thyroid"`
	Gastritis         bool `json:"has_gastritis"`
	IBS               bool `json:"has_ibs"`
	Constipation      bool `json:"has_constipation"`
	Reflux            bool `json:"has_reflux"`
	Pancreatitis      bool `json:"has_pancreatitis"`
	HeartDisease      bool `json:"has_heart_disease"`
	Stroke            bool `json:"has_stroke"`
	Anemia            bool `json:"has_anemia"`
	Osteoporosis      bool `json:"has_osteoporosis"`
	FoodAllergy       bool `json:"has_food_allergy"`
}

// Profile is the health profile of the authenticated user.
type Profile struct {
	Username     string  `json:"username"`
	Name         string  `json:"name"`
	Gender       string  `json:"gender"` // "M" or "F"
	Age          int     `json:"age"`
	Height       float64 `json:"height"`    // cm
	Weight       float64 `json:"weight"`    // kg
	DietGoal     string  `json:"diet_goal"` // loss, maintain, gain
	IsVegetarian bool    `json:"is_vegetarian"`
	Conditions
}

// ProfileUpdate is a partial profile change. Nil fields are not sent.
type ProfileUpdate struct {
	Name         *string         `json:"name,omitempty"`
	Gender       *string         `json:"gender,omitempty"`
	Age          *int            `json:"age,omitempty"`
	Height       *float64        `json:"height,omitempty"`
	Weight       *float64        `json:"weight,omitempty"`
	DietGoal     *string         `json:"diet_goal,omitempty"`
	IsVegetarian *bool           `json:"is_vegetarian,omitempty"`
	Conditions   map[string]bool `json:"-"` // keyed by JSON name, e.g. "has_gout"
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username     string  `json:"username"`
	Password     string  `json:"password"`
	Name         string  `json:"name"`
	Gender       string  `json:"gender"`
	Age          int     `json:"age"`
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"`
	DietGoal     string  `json:"diet_goal"`
	IsVegetarian bool    `json:"is_vegetarian"`
	Conditions
}

// DailyHistory is one evaluated day.
type DailyHistory struct {
	ID              int     `json:"id"`
	Date            string  `json:"date"`
	TotalIntakeText string  `json:"total_intake_text"`
	ScoreMacro      int     `json:"score_macro"`
	ScoreDisease    int     `json:"score_disease"`
	ScoreGoal       int     `json:"score_goal"`
	TotalGrade      string  `json:"total_grade"`
	ReasonMacro     string  `json:"reason_macro"`
	ReasonDisease   string  `json:"reason_disease"`
	ReasonGoal      string  `json:"reason_goal"`
	AdviceMacro     string  `json:"advice_macro"`
	AdviceDisease   string  `json:"advice_disease"`
	AdviceGoal      string  `json:"advice_goal"`
	Gender          string  `json:"gender"`
	Age             int     `json:"age"`
	Height          float64 `json:"height"`
	Weight          float64 `json:"weight"`
	DietGoal        string  `json:"diet_goal"`
}

// HistoryPageSize is the number of days the server returns per page.
const HistoryPageSize = 10
