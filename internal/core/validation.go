package core

// validation.go checks decoded frontmatter against the game schema.
//
// Validation happens in two passes:
//  1. Coercion: each raw value is converted to its field type. A value that is
//     present but cannot be converted is an invalid field.
//  2. Tag checks: the coerced values are run through go-playground/validator
//     (required, enum membership, ranges). "required" failures become missing
//     fields; everything else is an invalid field.
//
// Problems are reported in schema order so error output is stable.

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldSpec describes one frontmatter field.
type FieldSpec struct {
	Name     string
	Required bool
}

// FrontmatterFields is the game schema in canonical order.
var FrontmatterFields = []FieldSpec{
	{Name: "season", Required: true},
	{Name: "game_type", Required: true},
	{Name: "home_away", Required: true},
	{Name: "opponent", Required: true},
	{Name: "date", Required: true},
	{Name: "attendance"},
	{Name: "weather"},
	{Name: "location"},
}

// frontmatterInput carries coerced values through the tag validator.
type frontmatterInput struct {
	Season     *int       `yaml:"season" validate:"required,min=1000,max=9999"`
	GameType   string     `yaml:"game_type" validate:"required,oneof=regular_season bowl playoff championship"`
	HomeAway   string     `yaml:"home_away" validate:"required,oneof=home away neutral"`
	Opponent   string     `yaml:"opponent" validate:"required"`
	Date       *time.Time `yaml:"date" validate:"required"`
	Attendance *int       `yaml:"attendance" validate:"omitempty,min=0"`
	Weather    string     `yaml:"weather"`
	Location   string     `yaml:"location"`
}

var schemaValidator = newSchemaValidator()

func newSchemaValidator() *validator.Validate {
	v := validator.New()

	// Report YAML key names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateFrontmatter converts raw metadata into a typed Frontmatter.
// Returns a *ValidationError listing every missing and invalid field.
func ValidateFrontmatter(raw RawMetadata) (Frontmatter, error) {
	in, invalid := coerceFrontmatter(raw)
	verr := &ValidationError{}

	if err := schemaValidator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Frontmatter{}, &InternalError{Op: "validate frontmatter", Err: err}
		}
		for _, fe := range fieldErrs {
			name := fe.Field()
			if _, seen := invalid[name]; seen {
				continue
			}
			if fe.Tag() == "required" {
				verr.MissingFields = append(verr.MissingFields, name)
				continue
			}
			invalid[name] = FieldError{
				Field:   name,
				Value:   describeValue(raw[name]),
				Message: tagMessage(fe),
			}
		}
	}

	for _, spec := range FrontmatterFields {
		if fe, ok := invalid[spec.Name]; ok {
			verr.InvalidFields = append(verr.InvalidFields, fe)
		}
	}
	verr.MissingFields = inSchemaOrder(verr.MissingFields)

	if !verr.empty() {
		return Frontmatter{}, verr
	}
	return in.frontmatter(), nil
}

// DecodeFrontmatter is the non-validating path: every field that can be
// coerced is kept, everything else is left absent. It never fails.
func DecodeFrontmatter(raw RawMetadata) Frontmatter {
	in, _ := coerceFrontmatter(raw)
	return in.frontmatter()
}

// coerceFrontmatter converts each known field, recording values that are
// present but cannot be converted.
func coerceFrontmatter(raw RawMetadata) (frontmatterInput, map[string]FieldError) {
	var in frontmatterInput
	invalid := make(map[string]FieldError)

	bad := func(field, msg string) {
		invalid[field] = FieldError{Field: field, Value: describeValue(raw[field]), Message: msg}
	}

	if v, ok := present(raw, "season"); ok {
		if i, ok := coerceInt(v); ok {
			in.Season = &i
		} else {
			bad("season", "must be a 4-digit year")
		}
	}
	if v, ok := present(raw, "game_type"); ok {
		if s, ok := coerceString(v); ok {
			in.GameType = s
		} else {
			bad("game_type", "must be a string")
		}
	}
	if v, ok := present(raw, "home_away"); ok {
		if s, ok := coerceString(v); ok {
			in.HomeAway = s
		} else {
			bad("home_away", "must be a string")
		}
	}
	if v, ok := present(raw, "opponent"); ok {
		if s, ok := coerceString(v); ok {
			in.Opponent = s
		} else {
			bad("opponent", "must be a string")
		}
	}
	if v, ok := present(raw, "date"); ok {
		if d, ok := coerceDate(v); ok {
			in.Date = &d
		} else {
			bad("date", "invalid date format (use YYYY-MM-DD or similar)")
		}
	}
	if v, ok := present(raw, "attendance"); ok {
		if i, ok := coerceInt(v); ok {
			in.Attendance = &i
		} else {
			bad("attendance", "must be a whole number")
		}
	}
	if v, ok := present(raw, "weather"); ok {
		if s, ok := coerceString(v); ok {
			in.Weather = s
		} else {
			bad("weather", "must be a string")
		}
	}
	if v, ok := present(raw, "location"); ok {
		if s, ok := coerceString(v); ok {
			in.Location = s
		} else {
			bad("location", "must be a string")
		}
	}

	return in, invalid
}

// present returns the raw value of key unless it is absent, null or blank.
func present(raw RawMetadata, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func (in frontmatterInput) frontmatter() Frontmatter {
	return Frontmatter{
		Season:     in.Season,
		GameType:   GameType(in.GameType),
		HomeAway:   HomeAway(in.HomeAway),
		Opponent:   in.Opponent,
		Date:       in.Date,
		Attendance: in.Attendance,
		Weather:    in.Weather,
		Location:   in.Location,
	}
}

// tagMessage renders a validator failure as a human-readable message.
func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "max":
		if fe.Field() == "season" {
			return "must be a 4-digit year"
		}
		if fe.Field() == "attendance" {
			return "must be non-negative"
		}
		return "out of range"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func inSchemaOrder(fields []string) []string {
	if len(fields) < 2 {
		return fields
	}
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	ordered := make([]string, 0, len(fields))
	for _, spec := range FrontmatterFields {
		if want[spec.Name] {
			ordered = append(ordered, spec.Name)
		}
	}
	return ordered
}
