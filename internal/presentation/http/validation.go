package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// newValidator returns a validator that understands decimal fields, so tags such as gt=0 work
// on money and physical attributes.
func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate decodes the JSON body into out and validates it. On failure it writes the
// 400 response and returns false.
func (h *Handler) bindAndValidate(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation_failed",
			"fields": validationErrorsToMap(err),
		})
		return false
	}
	return true
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Namespace()] = fmt.Sprintf("failed on %q", fe.Tag())
		}
		return out
	}
	out["error"] = err.Error()
	return out
}
