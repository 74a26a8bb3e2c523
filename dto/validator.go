package dto

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	dateRegex   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	answerRegex = regexp.MustCompile(`^[A-Z]+$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("puzzle_date", validatePuzzleDate)
	validate.RegisterValidation("game_type", validateGameType)
	validate.RegisterValidation("board_type", validateBoardType)
	validate.RegisterValidation("upper_answer", validateUpperAnswer)
}

func GetValidator() *validator.Validate {
	return validate
}

func validatePuzzleDate(fl validator.FieldLevel) bool {
	return dateRegex.MatchString(fl.Field().String())
}

func validateGameType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "tandem", "cryptic", "mini", "reel", "soup":
		return true
	}
	return false
}

func validateBoardType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily_speed", "best_streak":
		return true
	}
	return false
}

func validateUpperAnswer(fl validator.FieldLevel) bool {
	return answerRegex.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param()
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param()
			case "len":
				message = fieldError.Field() + " must have exactly " + fieldError.Param() + " items"
			case "puzzle_date":
				message = fieldError.Field() + " must be a YYYY-MM-DD date"
			case "game_type":
				message = fieldError.Field() + " must be one of: tandem, cryptic, mini, reel, soup"
			case "board_type":
				message = fieldError.Field() + " must be one of: daily_speed, best_streak"
			case "upper_answer":
				message = fieldError.Field() + " must be uppercase letters only"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			case "email":
				message = "Invalid email format"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
