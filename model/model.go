package model

import (
	"strconv"
	"time"
)

// Payload is a questionnaire submission as decoded from the request body.
// Its shape is not trusted; the normalize package reads it through
// default-returning accessors.
type Payload map[string]any

// Frustration labels as they appear in responses.frustrations.ratings[].title.
const (
	FrustrationNoBuddies        = "No event buddies"
	FrustrationSocialRut        = "Stuck in a social rut"
	FrustrationStartingConvos   = "Struggling with starting conversations"
	FrustrationSimilarInterests = "Difficulty finding people with similar interests"
	FrustrationShortNotice      = "No plans on short notice"
	FrustrationIsolatedNewPlace = "Feeling isolated in a new place"
)

var FrustrationLabels = []string{
	FrustrationNoBuddies,
	FrustrationSocialRut,
	FrustrationStartingConvos,
	FrustrationSimilarInterests,
	FrustrationShortNotice,
	FrustrationIsolatedNewPlace,
}

type FrustrationScores map[string]int

// NewFrustrationScores returns every known label set to 0.
func NewFrustrationScores() FrustrationScores {
	scores := make(FrustrationScores, len(FrustrationLabels))
	for _, label := range FrustrationLabels {
		scores[label] = 0
	}
	return scores
}

const FrustrationsGroup = "frustrations"

// AnswerGroups lists the response groups stored as comma-joined text, in
// column order.
var AnswerGroups = []string{
	"weekend",
	"meeting",
	"vibe",
	"new_things",
	"blockers",
	"safe_fun",
	"platform",
	"challenges",
	"features",
	"safety",
	"scenarios",
}

// FormResponse is one row of desirability_form_responses.
type FormResponse struct {
	ID int64 `json:"id"`

	FullName   string `json:"full_name"`
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	City       string `json:"city"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`

	FrustrationNoBuddies        int `json:"frustration_no_buddies"`
	FrustrationSocialRut        int `json:"frustration_social_rut"`
	FrustrationStartingConvos   int `json:"frustration_starting_convos"`
	FrustrationSimilarInterests int `json:"frustration_similar_interests"`
	FrustrationShortNotice      int `json:"frustration_short_notice"`
	FrustrationIsolatedNewPlace int `json:"frustration_isolated_new_place"`

	WeekendOptions     string `json:"weekend_options"`
	MeetingFeeling     string `json:"meeting_feeling"`
	VibeSelections     string `json:"vibe_selections"`
	LastNewThing       string `json:"last_new_thing"`
	MeetingBlocker     string `json:"meeting_blocker"`
	SafeFunOption      string `json:"safe_fun_option"`
	PlatformLikelihood string `json:"platform_likelihood"`
	Challenges         string `json:"challenges"`
	Features           string `json:"features"`
	Safety             string `json:"safety"`
	Scenarios          string `json:"scenarios"`

	SubmissionDate time.Time `json:"submission_date"`
}

// Columns is the declared column order of FormResponse. It drives SELECT
// lists and the CSV header, and matches the JSON keys.
var Columns = []string{
	"id", "full_name", "gender", "age", "city", "email", "phone", "occupation",
	"frustration_no_buddies", "frustration_social_rut",
	"frustration_starting_convos", "frustration_similar_interests",
	"frustration_short_notice", "frustration_isolated_new_place",
	"weekend_options", "meeting_feeling", "vibe_selections",
	"last_new_thing", "meeting_blocker", "safe_fun_option",
	"platform_likelihood", "challenges", "features", "safety", "scenarios",
	"submission_date",
}

// SetFrustrations copies the six scores into their columns.
func (r *FormResponse) SetFrustrations(s FrustrationScores) {
	r.FrustrationNoBuddies = s[FrustrationNoBuddies]
	r.FrustrationSocialRut = s[FrustrationSocialRut]
	r.FrustrationStartingConvos = s[FrustrationStartingConvos]
	r.FrustrationSimilarInterests = s[FrustrationSimilarInterests]
	r.FrustrationShortNotice = s[FrustrationShortNotice]
	r.FrustrationIsolatedNewPlace = s[FrustrationIsolatedNewPlace]
}

// AnswerColumn returns the text column backing a response group, or nil
// for an unknown group.
func (r *FormResponse) AnswerColumn(group string) *string {
	switch group {
	case "weekend":
		return &r.WeekendOptions
	case "meeting":
		return &r.MeetingFeeling
	case "vibe":
		return &r.VibeSelections
	case "new_things":
		return &r.LastNewThing
	case "blockers":
		return &r.MeetingBlocker
	case "safe_fun":
		return &r.SafeFunOption
	case "platform":
		return &r.PlatformLikelihood
	case "challenges":
		return &r.Challenges
	case "features":
		return &r.Features
	case "safety":
		return &r.Safety
	case "scenarios":
		return &r.Scenarios
	}
	return nil
}

// Fields returns pointers to every field in Columns order, for rows.Scan.
func (r *FormResponse) Fields() []any {
	return []any{
		&r.ID, &r.FullName, &r.Gender, &r.Age, &r.City, &r.Email, &r.Phone, &r.Occupation,
		&r.FrustrationNoBuddies, &r.FrustrationSocialRut,
		&r.FrustrationStartingConvos, &r.FrustrationSimilarInterests,
		&r.FrustrationShortNotice, &r.FrustrationIsolatedNewPlace,
		&r.WeekendOptions, &r.MeetingFeeling, &r.VibeSelections,
		&r.LastNewThing, &r.MeetingBlocker, &r.SafeFunOption,
		&r.PlatformLikelihood, &r.Challenges, &r.Features, &r.Safety, &r.Scenarios,
		&r.SubmissionDate,
	}
}

// Values returns every field in Columns order, for query arguments.
func (r FormResponse) Values() []any {
	return []any{
		r.ID, r.FullName, r.Gender, r.Age, r.City, r.Email, r.Phone, r.Occupation,
		r.FrustrationNoBuddies, r.FrustrationSocialRut,
		r.FrustrationStartingConvos, r.FrustrationSimilarInterests,
		r.FrustrationShortNotice, r.FrustrationIsolatedNewPlace,
		r.WeekendOptions, r.MeetingFeeling, r.VibeSelections,
		r.LastNewThing, r.MeetingBlocker, r.SafeFunOption,
		r.PlatformLikelihood, r.Challenges, r.Features, r.Safety, r.Scenarios,
		r.SubmissionDate,
	}
}

// Record renders the row as text in Columns order.
func (r FormResponse) Record() []string {
	itoa := strconv.Itoa
	return []string{
		strconv.FormatInt(r.ID, 10), r.FullName, r.Gender, itoa(r.Age), r.City, r.Email, r.Phone, r.Occupation,
		itoa(r.FrustrationNoBuddies), itoa(r.FrustrationSocialRut),
		itoa(r.FrustrationStartingConvos), itoa(r.FrustrationSimilarInterests),
		itoa(r.FrustrationShortNotice), itoa(r.FrustrationIsolatedNewPlace),
		r.WeekendOptions, r.MeetingFeeling, r.VibeSelections,
		r.LastNewThing, r.MeetingBlocker, r.SafeFunOption,
		r.PlatformLikelihood, r.Challenges, r.Features, r.Safety, r.Scenarios,
		r.SubmissionDate.Format(time.RFC3339),
	}
}

// PersonalInfo holds the respondent fields checked when required-field
// validation is enabled.
type PersonalInfo struct {
	Name       string `json:"name" validate:"required"`
	Gender     string `json:"gender" validate:"required"`
	Age        int    `json:"age" validate:"required"`
	City       string `json:"city" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation" validate:"required"`
}

// PowerBIRow is the flattened shape served to Power BI.
type PowerBIRow struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	City       string `json:"city"`
	Email      string `json:"email"`
	Occupation string `json:"occupation"`

	FrustrationScoreNoBuddies        int `json:"frustration_score_no_buddies"`
	FrustrationScoreSocialRut        int `json:"frustration_score_social_rut"`
	FrustrationScoreStartingConvos   int `json:"frustration_score_starting_conversations"`
	FrustrationScoreSimilarInterests int `json:"frustration_score_similar_interests"`
	FrustrationScoreShortNotice      int `json:"frustration_score_short_notice"`
	FrustrationScoreIsolatedNewPlace int `json:"frustration_score_isolated_new_place"`

	WeekendOptions     string `json:"weekend_options"`
	MeetingFeeling     string `json:"meeting_feeling"`
	VibeSelections     string `json:"vibe_selections"`
	LastNewThing       string `json:"last_new_thing"`
	MeetingBlocker     string `json:"meeting_blocker"`
	SafeFunOption      string `json:"safe_fun_option"`
	PlatformLikelihood string `json:"platform_likelihood"`
	Challenges         string `json:"challenges"`
	Features           string `json:"features"`
	Safety             string `json:"safety"`
	Scenarios          string `json:"scenarios"`

	SubmissionDate string `json:"submission_date"`
	SubmissionTime string `json:"submission_time"`
}

func (r FormResponse) PowerBI() PowerBIRow {
	return PowerBIRow{
		ID:                               r.ID,
		FullName:                         r.FullName,
		Gender:                           r.Gender,
		Age:                              r.Age,
		City:                             r.City,
		Email:                            r.Email,
		Occupation:                       r.Occupation,
		FrustrationScoreNoBuddies:        r.FrustrationNoBuddies,
		FrustrationScoreSocialRut:        r.FrustrationSocialRut,
		FrustrationScoreStartingConvos:   r.FrustrationStartingConvos,
		FrustrationScoreSimilarInterests: r.FrustrationSimilarInterests,
		FrustrationScoreShortNotice:      r.FrustrationShortNotice,
		FrustrationScoreIsolatedNewPlace: r.FrustrationIsolatedNewPlace,
		WeekendOptions:                   r.WeekendOptions,
		MeetingFeeling:                   r.MeetingFeeling,
		VibeSelections:                   r.VibeSelections,
		LastNewThing:                     r.LastNewThing,
		MeetingBlocker:                   r.MeetingBlocker,
		SafeFunOption:                    r.SafeFunOption,
		PlatformLikelihood:               r.PlatformLikelihood,
		Challenges:                       r.Challenges,
		Features:                         r.Features,
		Safety:                           r.Safety,
		Scenarios:                        r.Scenarios,
		SubmissionDate:                   r.SubmissionDate.Format("2006-01-02"),
		SubmissionTime:                   r.SubmissionDate.Format("15:04:05"),
	}
}

type GenderCount struct {
	Gender string `json:"gender"`
	Count  int    `json:"count"`
}

type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// AgeStatistics values are nil when no row has a positive age.
type AgeStatistics struct {
	AvgAge *float64 `json:"avg_age"`
	MinAge *int64   `json:"min_age"`
	MaxAge *int64   `json:"max_age"`
}

// FrustrationAverages values are nil on an empty table.
type FrustrationAverages struct {
	AvgNoBuddies        *float64 `json:"avg_no_buddies"`
	AvgSocialRut        *float64 `json:"avg_social_rut"`
	AvgStartingConvos   *float64 `json:"avg_starting_convos"`
	AvgSimilarInterests *float64 `json:"avg_similar_interests"`
	AvgShortNotice      *float64 `json:"avg_short_notice"`
	AvgIsolatedNewPlace *float64 `json:"avg_isolated_new_place"`
}

type Summary struct {
	TotalResponses           int                 `json:"total_responses"`
	GenderDistribution       []GenderCount       `json:"gender_distribution"`
	AgeStatistics            AgeStatistics       `json:"age_statistics"`
	TopCities                []CityCount         `json:"top_cities"`
	AverageFrustrationScores FrustrationAverages `json:"average_frustration_scores"`
}

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}
