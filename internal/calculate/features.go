package calculate

import (
	"github.com/Alias1177/SalesPredictor/models"
)

// Features derives the model inputs for one sales record.
// Weekdays are numbered Monday=0 through Sunday=6.
func Features(input models.SalesInput) (models.FeatureSet, error) {
	store, promo, holiday, err := requiredFields(input)
	if err != nil {
		return models.FeatureSet{}, err
	}

	date, err := models.ParseSalesDate(input.Date)
	if err != nil {
		return models.FeatureSet{}, &models.ParseError{Field: "date", Value: input.Date, Err: err}
	}

	dayOfWeek := models.DayOfWeek(date)
	isWeekend := 0
	if models.IsWeekend(dayOfWeek) {
		isWeekend = 1
	}

	return models.FeatureSet{
		Store:     store,
		Promo:     promo,
		Holiday:   holiday,
		Year:      date.Year(),
		Month:     int(date.Month()),
		DayOfWeek: dayOfWeek,
		IsWeekend: isWeekend,
	}, nil
}

// DayOfMonth returns the day component of a sales date
func DayOfMonth(date string) (int, error) {
	t, err := models.ParseSalesDate(date)
	if err != nil {
		return 0, &models.ParseError{Field: "date", Value: date, Err: err}
	}
	return t.Day(), nil
}

func requiredFields(input models.SalesInput) (store, promo, holiday int, err error) {
	switch {
	case input.Store == nil:
		return 0, 0, 0, &models.MissingFieldError{Field: "store"}
	case input.Promo == nil:
		return 0, 0, 0, &models.MissingFieldError{Field: "promo"}
	case input.Holiday == nil:
		return 0, 0, 0, &models.MissingFieldError{Field: "holiday"}
	}
	return *input.Store, *input.Promo, *input.Holiday, nil
}
