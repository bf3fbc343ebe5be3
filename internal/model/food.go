package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid marks a record that fails field validation.
var ErrInvalid = errors.New("invalid food record")

// Food is one tracked entry: a name and its calorie count.
type Food struct {
	Name     string `validate:"required"`
	Calories int    `validate:"gt=0"`
}

var validate = validator.New()

// Validate checks the record's field constraints.
func Validate(f Food) error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// MarshalJSON encodes the record as a [name, calories] pair.
func (f Food) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{f.Name, f.Calories})
}

// UnmarshalJSON decodes a [name, calories] pair.
func (f *Food) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("food: expected [name, calories]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("food: expected 2 elements, got %d", len(pair))
	}
	var name string
	if err := json.Unmarshal(pair[0], &name); err != nil {
		return fmt.Errorf("food: name: %w", err)
	}
	var cal int
	if err := json.Unmarshal(pair[1], &cal); err != nil {
		return fmt.Errorf("food: calories: %w", err)
	}
	f.Name, f.Calories = name, cal
	return nil
}
