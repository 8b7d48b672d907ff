package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes the body into dst and validates it. On failure the
// response has been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "invalid JSON body"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "validation failed",
			Errors:  validationErrors(err),
		})
		return false
	}
	return true
}

func validationErrors(err error) map[string]string {
	out := map[string]string{}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		out["body"] = err.Error()
		return out
	}
	for _, ve := range ves {
		switch ve.Tag() {
		case "required":
			out[ve.Field()] = "is required"
		case "len":
			out[ve.Field()] = "must be exactly " + ve.Param() + " characters"
		case "numeric":
			out[ve.Field()] = "must contain digits only"
		default:
			out[ve.Field()] = ve.Tag()
		}
	}
	return out
}

// pathID reads a positive integer path variable
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "invalid " + name,
			Errors:  map[string]string{name: "must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}
