package schedule

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/vbonduro/plantcare/internal/domain"
)

// Item is one scheduled action on the agenda. TaskIndex is -1 for watering.
type Item struct {
	PlantID   string `json:"plantId"`
	PlantName string `json:"plantName"`
	Type      string `json:"type"`
	TaskIndex int    `json:"taskIndex"`
	Title     string `json:"title"`
	Due       string `json:"due"`
	Delta     int    `json:"delta"`
	Class     Class  `json:"class"`
	Human     string `json:"human"`
}

// Agenda groups scheduled actions the way the task view presents them.
type Agenda struct {
	Overdue  []Item `json:"overdue"`
	Today    []Item `json:"today"`
	Upcoming []Item `json:"upcoming"`
}

// Items lists the watering action and every resolvable task for each plant,
// sorted by due date.
func Items(plants []*domain.Plant, s domain.Settings, now time.Time) []Item {
	var items []Item
	for _, p := range plants {
		due := NextDue(p, s, now)
		items = append(items, newItem(p, domain.HistoryWater, -1, Title("water", p.Name), due, now))
		for i, t := range p.Tasks {
			tdue, ok := TaskDue(p, i, now)
			if !ok {
				continue
			}
			items = append(items, newItem(p, t.Type, i, Title(t.Type, p.Name), tdue, now))
		}
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Or(strings.Compare(a.Due, b.Due), strings.Compare(a.Title, b.Title))
	})
	return items
}

// BuildAgenda filters Items by the task-type, window and overdue-only
// preferences of s.
func BuildAgenda(plants []*domain.Plant, s domain.Settings, now time.Time) Agenda {
	s.Normalize()
	a := Agenda{Overdue: []Item{}, Today: []Item{}, Upcoming: []Item{}}
	for _, it := range Items(plants, s, now) {
		isWater := it.TaskIndex < 0
		if s.TaskType == domain.TaskFilterWater && !isWater {
			continue
		}
		if s.TaskType == domain.TaskFilterOther && isWater {
			continue
		}
		switch {
		case it.Delta < 0:
			a.Overdue = append(a.Overdue, it)
		case s.OnlyOverdue:
		case it.Delta == 0:
			a.Today = append(a.Today, it)
		case it.Delta <= s.TaskWindow:
			a.Upcoming = append(a.Upcoming, it)
		}
	}
	return a
}

// Title renders "Water Monstera" style labels.
func Title(action, plantName string) string {
	return strings.TrimSpace(Capitalize(action) + " " + plantName)
}

func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func newItem(p *domain.Plant, typ string, idx int, title string, due, now time.Time) Item {
	return Item{
		PlantID:   p.ID,
		PlantName: p.Name,
		Type:      typ,
		TaskIndex: idx,
		Title:     title,
		Due:       domain.FormatDate(due),
		Delta:     Delta(due, now),
		Class:     Classify(due, now),
		Human:     HumanDue(due, now),
	}
}
