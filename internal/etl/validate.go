package etl

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/registration-etl/internal/models"
)

var emailValidator = validator.New()

// ValidationResult holds every rule violation found for a record.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateRecord checks the business rules of a normalized record. It never
// stops at the first violation.
func ValidateRecord(rec models.NormalizedRecord, cfg Config) ValidationResult {
	var errs []string

	if rec.FirstName == "" {
		errs = append(errs, "Missing first name")
	}
	if rec.LastName == "" {
		errs = append(errs, "Missing last name")
	}
	if rec.Email == "" {
		errs = append(errs, "Missing email")
	} else if err := emailValidator.Var(rec.Email, "email"); err != nil {
		errs = append(errs, fmt.Sprintf("Invalid email: %s", rec.Email))
	}
	if rec.DateOfBirth == "" {
		errs = append(errs, "Missing date of birth")
	}
	if rec.Year == 0 {
		errs = append(errs, "Missing year")
	} else if rec.Year < 1 || rec.Year > 4 {
		errs = append(errs, fmt.Sprintf("Invalid year: %d", rec.Year))
	}
	if rec.Department == "" {
		errs = append(errs, "Missing department")
	}

	if rec.Phone != nil && cfg.PhonePolicy != nil {
		if msg := cfg.PhonePolicy.Violation(*rec.Phone); msg != "" {
			errs = append(errs, msg)
		}
	}

	if rec.DateOfBirth != "" {
		if dob, err := time.Parse(isoLayout, rec.DateOfBirth); err == nil {
			if age := ageOn(dob, cfg.now()); age < cfg.minAge() {
				errs = append(errs, fmt.Sprintf("Student too young: %d years old", age))
			}
		} else {
			errs = append(errs, fmt.Sprintf("Invalid date of birth: %s", rec.DateOfBirth))
		}
	}

	if rec.Credits != nil && (*rec.Credits < 1 || *rec.Credits > 4) {
		raw := rec.CreditsRaw
		if raw == "" {
			raw = fmt.Sprint(*rec.Credits)
		}
		errs = append(errs, fmt.Sprintf("Invalid credits: %s", raw))
	}

	if rec.HasCourse() && rec.EnrollmentDate == "" {
		errs = append(errs, "Missing enrollment date (required when course is provided)")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ageOn returns whole years between dob and now, subtracting one when the
// birthday has not yet occurred this year.
func ageOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
