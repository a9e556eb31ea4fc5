package validation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Rule is one named step of the rule based validation flow: the value of
// Param in Part must satisfy the validator tag (e.g. "required,email").
//
// Deprecated: declare a Set of JSON schemas instead.
type Rule struct {
	Param   string
	Part    request.Part
	Tag     string
	Message string
}

const legacyResultsKey = "routekit.legacy"

// LegacyMessage is the message of the aggregated rule failure.
const LegacyMessage = "validation"

type legacyResults struct {
	order  []string
	errors map[string]string
}

var legacyValidate = newLegacyValidator()

func newLegacyValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("uuidList", func(fl validator.FieldLevel) bool {
		for _, id := range strings.Split(fl.Field().String(), ",") {
			if !IsValidUUID(strings.TrimSpace(id)) {
				return false
			}
		}
		return true
	})
	return v
}

// Apply runs rule against the request and records its first failure per
// parameter. It never fails the request itself; Check does.
func (rule Rule) Apply(c echo.Context) error {
	value, err := ruleValue(c, rule)
	if err != nil {
		return err
	}

	verr := legacyValidate.Var(value, rule.Tag)
	if verr == nil {
		return nil
	}

	msg := rule.Message
	if msg == "" {
		msg = fmt.Sprintf("%s %s", rule.Param, ruleMessage(verr))
	}

	results := resultsOf(c)
	if _, seen := results.errors[rule.Param]; !seen {
		results.order = append(results.order, rule.Param)
		results.errors[rule.Param] = msg
	}

	return nil
}

// Check fails with 400 when any rule recorded a failure. The payload keeps the
// {"errors": {"<param>": {"message": ...}}} shape.
func Check(c echo.Context) error {
	results, ok := c.Get(legacyResultsKey).(*legacyResults)
	if !ok || len(results.order) == 0 {
		return nil
	}

	payload := make(map[string]any, len(results.order))
	fieldErrors := make([]errs.FieldError, 0, len(results.order))
	for _, param := range results.order {
		payload[param] = map[string]string{"message": results.errors[param]}
		fieldErrors = append(fieldErrors, errs.FieldError{Field: param, Error: results.errors[param]})
	}

	err := errs.New(LegacyMessage, http.StatusBadRequest, map[string]any{"errors": payload})
	err.Name = "ValidationError"
	err.Errors = fieldErrors

	return err
}

func resultsOf(c echo.Context) *legacyResults {
	if results, ok := c.Get(legacyResultsKey).(*legacyResults); ok {
		return results
	}

	results := &legacyResults{errors: make(map[string]string)}
	c.Set(legacyResultsKey, results)
	return results
}

// ruleValue looks the parameter up; a missing parameter reads as "".
func ruleValue(c echo.Context, rule Rule) (any, error) {
	part := rule.Part
	if part == "" {
		part = request.Body
	}

	data, err := request.Get(c, part)
	if err != nil {
		return nil, err
	}

	values, ok := data.(map[string]any)
	if !ok {
		return "", nil
	}

	switch v := values[rule.Param].(type) {
	case nil:
		return "", nil
	case []any:
		if len(v) == 0 {
			return "", nil
		}
		return v[0], nil
	default:
		return v, nil
	}
}

func ruleMessage(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return "is invalid"
	}
	return fieldMessage(validationErrors[0])
}
