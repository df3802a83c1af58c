package handler

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/ru"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
)

var (
	errNoTitle = errors.New("reminder text is empty")
	errNoDue   = errors.New("no due date or mileage in text")
)

var (
	everyRe   = regexp.MustCompile(`(?i)(?:^|\s)кажд(?:ые|ый|ую|ое)\s+(\d[\d\s]*?)\s*(км|километр\S*|дн(?:я|ей|ь)|день|сут\S*)`)
	mileageRe = regexp.MustCompile(`(?i)(?:^|\s)(?:на|при|в)\s+(\d[\d\s]*?)\s*(?:км|километр\S*)`)
	isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	spacesRe  = regexp.MustCompile(`\s+`)
)

// Фиксированные интервалы в днях. Месяц и год считаются днями, потому что
// повторение хранится в днях.
var repeatWords = []struct {
	words []string
	days  int
}{
	{[]string{"ежедневно", "каждый день"}, 1},
	{[]string{"еженедельно", "каждую неделю"}, 7},
	{[]string{"ежемесячно", "каждый месяц"}, 30},
	{[]string{"ежегодно", "каждый год"}, 365},
}

type repeatRule struct {
	re   *regexp.Regexp
	days int
}

// repeatRules ищутся прямо в исходном тексте: позиции в strings.ToLower
// могут не совпадать с позициями в оригинале.
var repeatRules = compileRepeatRules()

func compileRepeatRules() []repeatRule {
	var out []repeatRule
	for _, rw := range repeatWords {
		for _, w := range rw.words {
			out = append(out, repeatRule{re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(w)), days: rw.days})
		}
	}
	return out
}

var typeStems = []struct {
	typ   models.ReminderType
	stems []string
}{
	{models.TypeFuel, []string{"заправ", "бензин", "топлив", "дизел"}},
	{models.TypeInsurance, []string{"страхов", "осаго", "каско"}},
	{models.TypeTax, []string{"налог", "пошлин"}},
	{models.TypeMaintenance, []string{"масл", "замен", "ремонт", "шин", "резин", "тормоз", "фильтр", "техосмотр", "сервис"}},
}

// Draft - напоминание, разобранное из свободного текста.
type Draft struct {
	Title             string
	DueDate           string
	DueMileage        *int
	Type              models.ReminderType
	RecurringInterval *int
	RecurringMileage  *int
}

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(ru.All...)
	w.Add(common.All...)
	w.SetOptions(&rules.Options{
		Distance:     10,
		MatchByOrder: true,
	})
	return w
}

var dateParser = newParser()

// ParseReminder разбирает текст вида
// "2024-06-20 замена масла на 17500 км каждые 5000 км".
func ParseReminder(text string, now time.Time) (Draft, error) {
	d, rest := parseFields(text, now)
	d.Title = cleanTitle(rest)
	if d.Title == "" {
		return Draft{}, errNoTitle
	}
	if d.DueDate == "" && d.DueMileage == nil {
		return Draft{}, errNoDue
	}
	d.Type = detectType(d.Title)
	return d, nil
}

// parseFields извлекает дату, пробег и повторение; возвращает остаток текста.
func parseFields(text string, now time.Time) (Draft, string) {
	var d Draft
	rest := text

	if m := everyRe.FindStringSubmatchIndex(rest); m != nil {
		n, unit := atoi(rest[m[2]:m[3]]), strings.ToLower(rest[m[4]:m[5]])
		if strings.HasPrefix(unit, "км") || strings.HasPrefix(unit, "километр") {
			d.RecurringMileage = &n
		} else {
			d.RecurringInterval = &n
		}
		rest = rest[:m[0]] + " " + rest[m[1]:]
	}

	for _, rr := range repeatRules {
		if m := rr.re.FindStringIndex(rest); m != nil {
			if d.RecurringInterval == nil {
				days := rr.days
				d.RecurringInterval = &days
			}
			rest = rest[:m[0]] + " " + rest[m[1]:]
		}
	}

	if m := mileageRe.FindStringSubmatchIndex(rest); m != nil {
		n := atoi(rest[m[2]:m[3]])
		d.DueMileage = &n
		rest = rest[:m[0]] + " " + rest[m[1]:]
	}

	if m := isoDateRe.FindStringIndex(rest); m != nil {
		if _, err := status.ParseDate(rest[m[0]:m[1]], now.Location()); err == nil {
			d.DueDate = rest[m[0]:m[1]]
			rest = rest[:m[0]] + " " + rest[m[1]:]
		}
	}
	if d.DueDate == "" {
		if r, err := dateParser.Parse(rest, now); err == nil && r != nil {
			d.DueDate = status.FormatDate(r.Time.In(now.Location()))
			rest = strings.Replace(rest, r.Source, " ", 1)
		}
	}

	return d, rest
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.Join(strings.Fields(s), ""))
	return n
}

func cleanTitle(s string) string {
	s = strings.Replace(s, "/add", "", 1)
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,.;:-")
}

func detectType(title string) models.ReminderType {
	lower := strings.ToLower(title)
	for _, ts := range typeStems {
		for _, stem := range ts.stems {
			if strings.Contains(lower, stem) {
				return ts.typ
			}
		}
	}
	for _, w := range strings.Fields(lower) {
		if w == "то" {
			return models.TypeMaintenance
		}
	}
	return models.TypeOther
}
