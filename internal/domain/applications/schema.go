package applications

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Check valida y normaliza un valor ya presente. Devuelve el valor
// normalizado o un mensaje de error para el campo.
type Check func(v any) (any, string)

// Field es una regla del schema de un paso. Required vacío => opcional.
type Field struct {
	Name     string
	Required string
	Check    Check
}

// Schema es la lista ordenada de campos de un paso.
type Schema []Field

// Validate aplica el schema. Los campos desconocidos se descartan;
// los opcionales vacíos no se guardan.
func (s Schema) Validate(in Section) (Section, map[string]string) {
	out := Section{}
	errs := map[string]string{}

	for _, f := range s {
		raw, ok := in[f.Name]
		if !ok || isBlank(raw) {
			if f.Required != "" {
				errs[f.Name] = f.Required
			}
			continue
		}

		if f.Check == nil {
			out[f.Name] = raw
			continue
		}
		v, msg := f.Check(raw)
		if msg != "" {
			errs[f.Name] = msg
			continue
		}
		out[f.Name] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// Text acepta sólo strings y los guarda sin espacios de borde.
func Text() Check {
	return func(v any) (any, string) {
		s, ok := v.(string)
		if !ok {
			return nil, "Must be text"
		}
		return strings.TrimSpace(s), ""
	}
}

func Email(msg string) Check {
	return func(v any) (any, string) {
		s, ok := v.(string)
		if !ok {
			return nil, msg
		}
		s = strings.TrimSpace(s)
		if !emailPattern.MatchString(s) {
			return nil, msg
		}
		return s, ""
	}
}

// Boolean acepta bool o "true"/"false" (valores de radio buttons).
func Boolean(msg string) Check {
	return func(v any) (any, string) {
		switch t := v.(type) {
		case bool:
			return t, ""
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, msg
			}
			return b, ""
		default:
			return nil, msg
		}
	}
}

// IntBetween acepta números JSON o strings numéricos enteros en [min, max].
func IntBetween(min, max int, msg string) Check {
	return func(v any) (any, string) {
		n, ok := toInt(v)
		if !ok || n < min || n > max {
			return nil, msg
		}
		return n, ""
	}
}

// OneOf compara sin distinguir mayúsculas y guarda el valor canónico.
func OneOf(msg string, allowed ...string) Check {
	return func(v any) (any, string) {
		s, ok := v.(string)
		if !ok {
			return nil, msg
		}
		s = strings.TrimSpace(s)
		for _, a := range allowed {
			if strings.EqualFold(a, s) {
				return a, ""
			}
		}
		return nil, msg
	}
}

func toInt(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

const selectOption = "Please select an option"

var stepSchemas = map[Step]Schema{
	StepPersonal: {
		{Name: "firstName", Required: "First name is required", Check: Text()},
		{Name: "lastName", Required: "Last name is required", Check: Text()},
		{Name: "email", Required: "Email is required", Check: Email("Please enter a valid email")},
		{Name: "phone", Required: "Phone number is required", Check: Text()},
		{Name: "address", Required: "Address is required", Check: Text()},
		{Name: "city", Required: "City is required", Check: Text()},
		{Name: "state", Required: "State is required", Check: Text()},
		{Name: "zipCode", Required: "ZIP code is required", Check: Text()},
	},
	StepHome: {
		{Name: "housing", Required: "Please select a housing type", Check: OneOf("Please select a housing type", "house", "apartment", "condo", "other")},
		{Name: "ownRent", Required: selectOption, Check: OneOf(selectOption, "own", "rent")},
		{Name: "landlordContact", Check: Text()},
		{Name: "hasYard", Required: selectOption, Check: Boolean(selectOption)},
		{Name: "fenced", Check: Boolean(selectOption)},
		{Name: "hasChildren", Required: selectOption, Check: Boolean(selectOption)},
		{Name: "childrenAges", Check: Text()},
		{Name: "hasPets", Required: selectOption, Check: Boolean(selectOption)},
		{Name: "currentPets", Check: Text()},
	},
	StepExperience: {
		{Name: "hadPetsBefore", Required: selectOption, Check: Boolean(selectOption)},
		{Name: "petExperience", Required: "Please describe your experience", Check: Text()},
		{Name: "hoursAlone", Required: "This field is required", Check: IntBetween(0, 24, "Value must be between 0 and 24")},
		{Name: "exercisePlan", Required: "Please describe your exercise plan", Check: Text()},
		{Name: "trainingPlan", Check: Text()},
	},
	StepReferences: {
		{Name: "refName", Required: "Reference name is required", Check: Text()},
		{Name: "refPhone", Required: "Reference phone is required", Check: Text()},
		{Name: "refRelationship", Required: "Relationship is required", Check: Text()},
		{Name: "vetName", Check: Text()},
		{Name: "vetPhone", Check: Text()},
	},
}

// SchemaFor devuelve el schema del paso; los pasos sin formulario no tienen.
func SchemaFor(step Step) (Schema, error) {
	s, ok := stepSchemas[step]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no form", ErrBadState, step)
	}
	return s, nil
}

// ValidateDraft valida las cuatro secciones de una vez (envío sin wizard).
// Reporta el primer paso con errores.
func ValidateDraft(sections map[string]Section) (Draft, error) {
	var d Draft
	for step := StepPersonal; step <= StepReferences; step++ {
		section, errs := stepSchemas[step].Validate(sections[step.SectionKey()])
		if errs != nil {
			return Draft{}, &ValidationError{Step: step, Fields: errs}
		}
		d.set(step, section)
	}
	return d, nil
}
