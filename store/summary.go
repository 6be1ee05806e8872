package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/desirability-form/model"
)

const topCities = 10

// Summarize computes the aggregate statistics shown on /answers/summary.
// Top city ties are broken by city name.
func (s *Store) Summarize(ctx context.Context) (model.Summary, error) {
	sum := model.Summary{
		GenderDistribution: []model.GenderCount{},
		TopCities:          []model.CityCount{},
	}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+Table).Scan(&sum.TotalResponses)
	if err != nil {
		return sum, storageErr("summary.total", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT gender, COUNT(*) AS count
		FROM `+Table+`
		WHERE gender IS NOT NULL AND gender != ''
		GROUP BY gender
		ORDER BY gender`)
	if err != nil {
		return sum, storageErr("summary.gender", err)
	}
	defer rows.Close()
	for rows.Next() {
		var g model.GenderCount
		if err = rows.Scan(&g.Gender, &g.Count); err != nil {
			return sum, storageErr("summary.gender.scan", err)
		}
		sum.GenderDistribution = append(sum.GenderDistribution, g)
	}
	if err = rows.Err(); err != nil {
		return sum, storageErr("summary.gender", err)
	}
	rows.Close()

	var avgAge sql.NullFloat64
	var minAge, maxAge sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT AVG(age), MIN(age), MAX(age)
		FROM `+Table+`
		WHERE age > 0`,
	).Scan(&avgAge, &minAge, &maxAge)
	if err != nil {
		return sum, storageErr("summary.age", err)
	}
	sum.AgeStatistics = model.AgeStatistics{
		AvgAge: nullFloat(avgAge),
		MinAge: nullInt(minAge),
		MaxAge: nullInt(maxAge),
	}

	rows, err = s.db.QueryContext(ctx, s.rebind(`
		SELECT city, COUNT(*) AS count
		FROM `+Table+`
		WHERE city IS NOT NULL AND city != ''
		GROUP BY city
		ORDER BY count DESC, city ASC
		LIMIT ?`),
		topCities,
	)
	if err != nil {
		return sum, storageErr("summary.cities", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.CityCount
		if err = rows.Scan(&c.City, &c.Count); err != nil {
			return sum, storageErr("summary.cities.scan", err)
		}
		sum.TopCities = append(sum.TopCities, c)
	}
	if err = rows.Err(); err != nil {
		return sum, storageErr("summary.cities", err)
	}

	var avg [6]sql.NullFloat64
	err = s.db.QueryRowContext(ctx, `
		SELECT
			AVG(frustration_no_buddies),
			AVG(frustration_social_rut),
			AVG(frustration_starting_convos),
			AVG(frustration_similar_interests),
			AVG(frustration_short_notice),
			AVG(frustration_isolated_new_place)
		FROM `+Table,
	).Scan(&avg[0], &avg[1], &avg[2], &avg[3], &avg[4], &avg[5])
	if err != nil {
		return sum, storageErr("summary.frustrations", err)
	}
	sum.AverageFrustrationScores = model.FrustrationAverages{
		AvgNoBuddies:        nullFloat(avg[0]),
		AvgSocialRut:        nullFloat(avg[1]),
		AvgStartingConvos:   nullFloat(avg[2]),
		AvgSimilarInterests: nullFloat(avg[3]),
		AvgShortNotice:      nullFloat(avg[4]),
		AvgIsolatedNewPlace: nullFloat(avg[5]),
	}

	return sum, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
