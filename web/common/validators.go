package common

import (
	"fmt"
	"reflect"
	"strings"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/utils"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// customValidations are the tags added to gin's validator. hhmm is a time of day,
// weekstart a Sunday week start date and minutes a whole, non-negative break.
var customValidations = map[string]validator.Func{
	"hhmm": func(fl validator.FieldLevel) bool {
		return engine.IsTimeOfDay(fl.Field().String())
	},
	"weekstart": func(fl validator.FieldLevel) bool {
		return utils.IsWeekStart(fl.Field().String())
	},
	"minutes": func(fl validator.FieldLevel) bool {
		return engine.IsBreakMinutes(fl.Field().String())
	},
}

// Validation errors name fields by their json tag.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonFieldName)
	for tag, fn := range customValidations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
		}
	}
}

func jsonFieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "" {
		tag = fld.Tag.Get("form")
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
