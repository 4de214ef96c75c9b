package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// convertValue coerces a raw backend or caller value to the Go type used for
// desc.Type: bool, int (INTEGER and ENUM index), float64 or string.
func convertValue(desc homematic.ParameterDescription, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch desc.Type {
	case homematic.TypeBool, homematic.TypeAction:
		return toBool(desc, v)
	case homematic.TypeInteger:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return int(f), nil
	case homematic.TypeFloat:
		return toFloat(v)
	case homematic.TypeEnum:
		return toEnumIndex(desc, v)
	case homematic.TypeString:
		return fmt.Sprint(v), nil
	default:
		return v, nil
	}
}

// validate checks a converted value against desc before it is sent.
func validate(desc homematic.ParameterDescription, v any) error {
	switch desc.Type {
	case homematic.TypeInteger, homematic.TypeFloat:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if desc.Max <= desc.Min || desc.IsSpecial(f) {
			return nil
		}
		if f < desc.Min || f > desc.Max {
			return fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, v, desc.Min, desc.Max)
		}
	case homematic.TypeEnum:
		idx, ok := v.(int)
		if !ok || (len(desc.ValueList) > 0 && (idx < 0 || idx >= len(desc.ValueList))) {
			return fmt.Errorf("%w: enum index %v", ErrInvalidValue, v)
		}
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrInvalidValue, v)
	}
}

func toBool(desc homematic.ParameterDescription, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		if i := indexOf(desc.ValueList, t); i >= 0 {
			return i != 0, nil
		}
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a bool", ErrInvalidValue, t)
		}
		return b, nil
	default:
		f, err := toFloat(v)
		if err != nil {
			return false, err
		}
		return f != 0, nil
	}
}

func toEnumIndex(desc homematic.ParameterDescription, v any) (int, error) {
	if s, ok := v.(string); ok {
		if i := indexOf(desc.ValueList, s); i >= 0 {
			return i, nil
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		return 0, fmt.Errorf("%w: %q not in value list", ErrInvalidValue, s)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: enum index %v", ErrInvalidValue, v)
	}
	return int(f), nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
