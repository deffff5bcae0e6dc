package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is the profile used to personalise prompts and to own records.
type User struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	DateOfBirth            *time.Time `json:"date_of_birth,omitempty"`
	Gender                 string     `json:"gender,omitempty"`
	Weight                 float64    `json:"weight,omitempty"`
	Height                 float64    `json:"height,omitempty"`
	ActivityLevel          string     `json:"activity_level,omitempty"`
	Objective              string     `json:"objective,omitempty"`
	DietaryPreference      string     `json:"dietary_preference"`
	AdditionalRestrictions string     `json:"additional_restrictions,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the email when no name was given.
func (u *User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Email
}

// Age in whole years at now, or 0 when the birth date is unknown.
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth == nil {
		return 0
	}
	return int(now.Sub(*u.DateOfBirth).Hours() / 24 / 365)
}

// PromptContext renders the profile lines prepended to model prompts.
func (u *User) PromptContext(now time.Time) string {
	var sb strings.Builder
	sb.WriteString("Usuario: " + u.DisplayName() + "\n")
	if age := u.Age(now); age > 0 {
		sb.WriteString("Edad: " + strconv.Itoa(age) + "\n")
	}
	if u.Weight > 0 {
		sb.WriteString("Peso: " + strconv.FormatFloat(u.Weight, 'f', -1, 64) + "kg\n")
	}
	if u.Height > 0 {
		sb.WriteString("Altura: " + strconv.FormatFloat(u.Height, 'f', -1, 64) + "cm\n")
	}
	if u.Objective != "" {
		sb.WriteString("Objetivo: " + u.ObjectiveLabel() + "\n")
	}
	if u.ActivityLevel != "" {
		sb.WriteString("Actividad: " + u.ActivityLabel() + "\n")
	}
	if u.DietaryPreference != "" {
		sb.WriteString("Dieta: " + u.DietLabel() + "\n")
	}
	if u.AdditionalRestrictions != "" {
		sb.WriteString("Restricciones: " + u.AdditionalRestrictions + "\n")
	}
	return sb.String()
}

var (
	activityLabels = map[string]string{
		"sedentary": "0-2",
		"moderate":  "3-5",
		"active":    "6+",
	}
	objectiveLabels = map[string]string{
		"lose":     "Perder peso",
		"maintain": "Mantener peso",
		"gain":     "Aumentar peso",
	}
	dietLabels = map[string]string{
		"classic":     "Clásico",
		"vegetarian":  "Vegetariano",
		"vegan":       "Vegano",
		"pescetarian": "Pescetariano",
	}
)

// ActivityLabel, ObjectiveLabel and DietLabel return the display text for the coded fields.
func (u *User) ActivityLabel() string  { return labelOr(activityLabels, u.ActivityLevel) }
func (u *User) ObjectiveLabel() string { return labelOr(objectiveLabels, u.Objective) }
func (u *User) DietLabel() string      { return labelOr(dietLabels, u.DietaryPreference) }

func labelOr(m map[string]string, code string) string {
	if l, ok := m[code]; ok {
		return l
	}
	return code
}

// Validate checks the coded profile fields.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return NewValidationError("email", "a valid email is required")
	}
	if u.ActivityLevel != "" {
		if _, ok := activityLabels[u.ActivityLevel]; !ok {
			return NewValidationError("activity_level", "must be sedentary, moderate or active")
		}
	}
	if u.Objective != "" {
		if _, ok := objectiveLabels[u.Objective]; !ok {
			return NewValidationError("objective", "must be lose, maintain or gain")
		}
	}
	if u.DietaryPreference == "" {
		u.DietaryPreference = "classic"
	}
	if _, ok := dietLabels[u.DietaryPreference]; !ok {
		return NewValidationError("dietary_preference", "must be classic, vegetarian, vegan or pescetarian")
	}
	switch u.Gender {
	case "", "M", "F", "O":
	default:
		return NewValidationError("gender", "must be M, F or O")
	}
	if u.Weight < 0 || u.Height < 0 {
		return NewValidationError("weight", "must not be negative")
	}
	return nil
}

// UserUpdate carries profile changes. Nil fields are left unchanged.
type UserUpdate struct {
	FirstName              *string  `json:"first_name,omitempty"`
	LastName               *string  `json:"last_name,omitempty"`
	DateOfBirth            *string  `json:"date_of_birth,omitempty"`
	Gender                 *string  `json:"gender,omitempty"`
	Weight                 *float64 `json:"weight,omitempty"`
	Height                 *float64 `json:"height,omitempty"`
	ActivityLevel          *string  `json:"activity_level,omitempty"`
	Objective              *string  `json:"objective,omitempty"`
	DietaryPreference      *string  `json:"dietary_preference,omitempty"`
	AdditionalRestrictions *string  `json:"additional_restrictions,omitempty"`
}

// Apply writes the non-nil fields into u and revalidates the result.
func (p *UserUpdate) Apply(u *User) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Gender, p.Gender)
	set(&u.ActivityLevel, p.ActivityLevel)
	set(&u.Objective, p.Objective)
	set(&u.DietaryPreference, p.DietaryPreference)
	set(&u.AdditionalRestrictions, p.AdditionalRestrictions)
	if p.Weight != nil {
		u.Weight = *p.Weight
	}
	if p.Height != nil {
		u.Height = *p.Height
	}
	if p.DateOfBirth != nil {
		if *p.DateOfBirth == "" {
			u.DateOfBirth = nil
		} else {
			d, err := time.Parse(DateLayout, *p.DateOfBirth)
			if err != nil {
				return NewValidationError("date_of_birth", "expected YYYY-MM-DD")
			}
			u.DateOfBirth = &d
		}
	}
	return u.Validate()
}

func rangeMessage(min, max int) string {
	return fmt.Sprintf("must be between %d and %d", min, max)
}
