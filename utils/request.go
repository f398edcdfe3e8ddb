package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pantrypal/apperr"
)

const maxBodyBytes = 1 << 20

var Validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON reads the request body into dst. Any failure is a BadRequest.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperr.BadRequest("Request body is empty")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("Request body is empty")
		}
		return apperr.BadRequest("Invalid JSON body")
	}
	return nil
}

// ValidateStruct runs the validate tags on v and reports the failing fields
// as a BadRequest, prefixed with prefix.
func ValidateStruct(v interface{}, prefix string) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.BadRequest(prefix)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldName(fe))
	}
	return apperr.BadRequest(fmt.Sprintf("%s: %s", prefix, strings.Join(fields, ", ")))
}

func fieldName(fe validator.FieldError) string {
	if fe.Field() == "" {
		return fe.StructField()
	}
	return fe.Field()
}
