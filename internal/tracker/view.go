package tracker

import (
	"fmt"
	"strings"

	"github.com/Makepad-fr/foodtrack/internal/model"
)

// Row is one projected line. Index is 1-based and always refers to the
// position in the unfiltered list.
type Row struct {
	Index int
	model.Food
}

func (r Row) String() string {
	return fmt.Sprintf("%d. %s - %d kcal", r.Index, r.Name, r.Calories)
}

// Filter returns the records whose name contains query, ignoring case,
// in store order. An empty query matches everything.
func (t *Tracker) Filter(query string) []Row {
	return Project(t.foods, query)
}

// TotalCalories sums the whole list, regardless of any filter.
func (t *Tracker) TotalCalories() int { return Sum(t.foods) }

// ItemCount is the size of the whole list.
func (t *Tracker) ItemCount() int { return len(t.foods) }

// Project is Filter over an arbitrary snapshot, e.g. one carried by a Change.
func Project(foods []model.Food, query string) []Row {
	q := strings.ToLower(query)
	rows := make([]Row, 0, len(foods))
	for i, f := range foods {
		if strings.Contains(strings.ToLower(f.Name), q) {
			rows = append(rows, Row{Index: i + 1, Food: f})
		}
	}
	return rows
}

// Sum adds up the calories of foods.
func Sum(foods []model.Food) int {
	total := 0
	for _, f := range foods {
		total += f.Calories
	}
	return total
}
