package utils

import "github.com/landreg/cadastre/internal/shared/validation"

// ValidateStruct validates a struct and returns a user-friendly error
func ValidateStruct(s interface{}) error {
	return validation.Struct(s)
}

// FieldErrors validates s and returns one readable message per failed field.
func FieldErrors(s interface{}) []string {
	return validation.FieldErrors(s)
}
