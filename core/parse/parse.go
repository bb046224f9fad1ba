package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// deepRepair applies the jsonrepair library to content the lighter Repair
// routine could not fix: unquoted keys, single quotes, trailing commas,
// comments and similar model quirks.
func deepRepair(content string) (string, error) {
	return jsonrepair.JSONRepair(content)
}

// ParseStringAs parses a string into the specified type T.
// For primitive types (string, bool, int, uint, float) it performs direct
// conversion. For complex types (structs, maps, slices) it attempts JSON
// unmarshaling with a layered recovery strategy: the raw content first, then
// truncation [Repair], then the deep jsonrepair pass, before giving up with
// an error that preserves the original content.
//
// Example usage:
//
//	type Person struct {
//	    Name string `json:"name"`
//	    Age  int    `json:"age"`
//	}
//
//	// Parse a valid JSON string
//	person, err := ParseStringAs[Person](`{"name":"John","age":30}`)
//
//	// Parse a truncated JSON string (will be completed)
//	person, err := ParseStringAs[Person](`{"name":"John","age":30`)
//
//	// Parse primitive types
//	num, err := ParseStringAs[int]("42")
//	flag, err := ParseStringAs[bool]("true")
func ParseStringAs[T any](content string) (T, error) {
	var result T

	switch reflect.TypeFor[T]().Kind() {
	case reflect.String:
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil

	case reflect.Bool:
		val, err := strconv.ParseBool(content)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetBool(val)
		return result, nil

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetFloat(val)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetInt(val)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetUint(val)
		return result, nil

	default:
		if err := json.Unmarshal([]byte(content), &result); err == nil {
			return result, nil
		}

		if repaired := Repair(content); repaired != content {
			if err := json.Unmarshal([]byte(repaired), &result); err == nil {
				return result, nil
			}
		}

		deep, repairErr := deepRepair(content)
		if repairErr != nil {
			return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: %v", result, repairErr)
		}
		if err := json.Unmarshal([]byte(deep), &result); err != nil {
			return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (original content: %s)", result, err, content)
		}
		return result, nil
	}
}
