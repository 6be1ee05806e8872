// Package normalize flattens questionnaire submissions into the fixed
// desirability_form_responses row shape.
//
// Nothing here fails: missing or oddly shaped parts of a payload degrade to
// empty strings and zeros, with a warning in the log.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mbolis/desirability-form/log"
	"github.com/mbolis/desirability-form/model"
)

// Normalize maps a submission onto a FormResponse. ID and SubmissionDate are
// left for the store to assign.
func Normalize(p model.Payload) model.FormResponse {
	info := PersonalInfo(p)

	rec := model.FormResponse{
		FullName:   info.Name,
		Gender:     info.Gender,
		Age:        info.Age,
		City:       info.City,
		Email:      info.Email,
		Phone:      info.Phone,
		Occupation: info.Occupation,
	}
	rec.SetFrustrations(FrustrationScores(p))
	for _, group := range model.AnswerGroups {
		*rec.AnswerColumn(group) = GroupAnswers(p, group)
	}
	return rec
}

// PersonalInfo reads payload.personalInfo with a default for every field.
func PersonalInfo(p model.Payload) model.PersonalInfo {
	info, _ := object(p["personalInfo"])
	return model.PersonalInfo{
		Name:       text(info["name"]),
		Gender:     text(info["gender"]),
		Age:        age(info["age"]),
		City:       text(info["city"]),
		Email:      text(info["email"]),
		Phone:      text(info["phone"]),
		Occupation: text(info["occupation"]),
	}
}

// GroupAnswers joins the values of responses[group].answers with commas,
// in their original order. Any gap in that path yields "".
func GroupAnswers(p model.Payload, group string) string {
	groupData, ok := responseGroup(p, group)
	if !ok {
		log.Warnf("normalize.answers: missing answers for %s", group)
		return ""
	}

	answers, ok := groupData["answers"].([]any)
	if !ok {
		log.Warnf("normalize.answers: missing answers for %s", group)
		return ""
	}

	values := make([]string, 0, len(answers))
	for i, item := range answers {
		answer, ok := item.(map[string]any)
		if !ok {
			log.Warnf("normalize.answers: %s answer #%d is not an object", group, i)
			return ""
		}
		value, ok := answer["value"]
		if !ok {
			log.Warnf("normalize.answers: %s answer #%d has no value", group, i)
			return ""
		}
		values = append(values, text(value))
	}
	return strings.Join(values, ",")
}

// FrustrationScores reads responses.frustrations.ratings. Ratings with an
// unknown title are ignored; a repeated title keeps the last value.
func FrustrationScores(p model.Payload) model.FrustrationScores {
	scores := model.NewFrustrationScores()

	groupData, ok := responseGroup(p, model.FrustrationsGroup)
	if !ok {
		return scores
	}
	ratings, ok := groupData["ratings"].([]any)
	if !ok {
		if groupData["ratings"] != nil {
			log.Warnf("normalize.frustrations: ratings is not a list")
		}
		return scores
	}

	for i, item := range ratings {
		rating, ok := item.(map[string]any)
		if !ok {
			log.Warnf("normalize.frustrations: rating #%d is not an object", i)
			continue
		}
		title, _ := rating["title"].(string)
		if _, known := scores[title]; !known {
			continue
		}
		score, ok := integer(rating["value"])
		if !ok {
			log.WithFields(log.Fields{"title": title, "value": rating["value"]}).
				Warn("normalize.frustrations: skipping rating with invalid value")
			continue
		}
		scores[title] = score
	}
	return scores
}

func responseGroup(p model.Payload, group string) (map[string]any, bool) {
	responses, ok := object(p["responses"])
	if !ok {
		return nil, false
	}
	return object(responses[group])
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// text renders a decoded JSON value the way it is stored in a text column.
func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// integer accepts JSON numbers (truncated) and integer strings. Values that
// do not fit the INTEGER columns are rejected.
func integer(v any) (int, bool) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return inColumnRange(float64(n))
		}
		var err error
		if f, err = v.Float64(); err != nil {
			return 0, false
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return inColumnRange(float64(n))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return inColumnRange(math.Trunc(f))
}

func inColumnRange(f float64) (int, bool) {
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func age(v any) int {
	if v == nil {
		return 0
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return 0
	}
	n, ok := integer(v)
	if !ok {
		log.Warnf("normalize.personal_info: ignoring invalid age %v", v)
		return 0
	}
	return n
}
