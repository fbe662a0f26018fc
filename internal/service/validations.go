package service

import (
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	errorvalues "github.com/evercare/companion/internal/error_values"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			if len(value) < 8 || len(value) > 16 {
				return false
			}
			for i, char := range value {
				if i == 0 && char == '+' {
					continue
				}
				if !unicode.IsDigit(char) {
					return false
				}
			}
			return true
		})
	})
}

// ParseDay parses a caller-supplied local calendar date. The caller
// provides the date instead of the service reading the clock, so the
// ledger stays deterministic under test.
func ParseDay(value string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errorvalues.ErrInvalidDate
	}
	return day, nil
}
