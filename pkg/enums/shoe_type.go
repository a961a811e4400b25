package enums

import "fmt"

// ShoeType distinguishes the men's and women's sizing of a line item.
type ShoeType string

const (
	ShoeTypeMen   ShoeType = "M"
	ShoeTypeWomen ShoeType = "F"
)

var validShoeTypes = []ShoeType{
	ShoeTypeMen,
	ShoeTypeWomen,
}

// String implements fmt.Stringer.
func (s ShoeType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShoeType.
func (s ShoeType) IsValid() bool {
	for _, candidate := range validShoeTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShoeType converts raw input into a ShoeType.
func ParseShoeType(value string) (ShoeType, error) {
	for _, candidate := range validShoeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shoe type %q", value)
}
