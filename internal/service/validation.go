package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"ceritaku/internal/catalog"
	"ceritaku/internal/model"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("readinglevel", func(fl validator.FieldLevel) bool {
		return model.ReadingLevel(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("interest", func(fl validator.FieldLevel) bool {
		return catalog.IsInterest(fl.Field().String())
	})
	return v
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "gte", "lte":
			parts = append(parts, fmt.Sprintf("%s out of range", fe.Field()))
		case "readinglevel":
			parts = append(parts, fmt.Sprintf("unknown reading level %v", fe.Value()))
		case "interest":
			parts = append(parts, fmt.Sprintf("unknown interest %v", fe.Value()))
		case "unique":
			parts = append(parts, "duplicate interests")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
