package recommend

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"campusMarket/domain"
)

// StaticWeightTable holds the demographic category-weight prior, keyed by
// "ageGroup|gender" segment. Loaded once at startup, immutable after.
type StaticWeightTable struct {
	segments map[string]map[string]float64
}

// The source data only carries weights for the 20s age bracket, so every
// user is mapped onto it. Changing this needs confirmation from the data
// side first.
const staticAgeGroup = "20대"

func segmentKey(ageGroup, gender string) string {
	return ageGroup + "|" + gender
}

// LoadStaticWeightTable reads a CSV with the columns
// Age_Group, Gender, Category, Final_Weight.
func LoadStaticWeightTable(path string) (*StaticWeightTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weight csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read weight csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("weight csv %s has no data rows", path)
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Age_Group", "Gender", "Category", "Final_Weight"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("weight csv missing column %s", required)
		}
	}

	table := &StaticWeightTable{segments: make(map[string]map[string]float64)}
	for _, row := range rows[1:] {
		weight, err := strconv.ParseFloat(strings.TrimSpace(row[col["Final_Weight"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("weight csv bad Final_Weight %q: %w", row[col["Final_Weight"]], err)
		}

		key := segmentKey(strings.TrimSpace(row[col["Age_Group"]]), strings.TrimSpace(row[col["Gender"]]))
		if table.segments[key] == nil {
			table.segments[key] = make(map[string]float64)
		}
		table.segments[key][strings.TrimSpace(row[col["Category"]])] = weight
	}

	return table, nil
}

// WeightsFor returns a copy of the prior for the user's demographic
// segment, empty when the segment is unknown.
func (t *StaticWeightTable) WeightsFor(user domain.User) map[string]float64 {
	if t == nil {
		return map[string]float64{}
	}

	seg := t.segments[segmentKey(staticAgeGroup, normalizeGender(user.Gender))]

	out := make(map[string]float64, len(seg))
	for category, weight := range seg {
		out[category] = weight
	}
	return out
}

func normalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "man", "남", "남성":
		return "남"
	default:
		return "여"
	}
}
