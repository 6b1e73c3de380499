package spec

import (
	"fmt"
	"strings"
)

// ViolationCode identifies a broken specification invariant
type ViolationCode string

const (
	// CodeDuplicateEntity means two entities share a canonical name
	CodeDuplicateEntity ViolationCode = "DUPLICATE_ENTITY"

	// CodeDanglingRelation means a relation names an entity that does not exist
	CodeDanglingRelation ViolationCode = "DANGLING_RELATION"

	// CodeDanglingEndpointReference means an endpoint names an entity that does not exist
	CodeDanglingEndpointReference ViolationCode = "DANGLING_ENDPOINT_REFERENCE"

	// CodeEmptySpecification means no entities were extracted
	CodeEmptySpecification ViolationCode = "EMPTY_SPECIFICATION"

	// CodeConfidenceOutOfRange means confidence is outside [0,1]
	CodeConfidenceOutOfRange ViolationCode = "CONFIDENCE_OUT_OF_RANGE"

	// CodeDuplicateField means two fields of one entity share a canonical name
	CodeDuplicateField ViolationCode = "DUPLICATE_FIELD"

	// CodeInvalidFieldType means a field type is outside the supported set
	CodeInvalidFieldType ViolationCode = "INVALID_FIELD_TYPE"

	// CodeInvalidProtocol means the protocol is outside the supported set
	CodeInvalidProtocol ViolationCode = "INVALID_PROTOCOL"

	// CodeInvalidName means a name normalizes to an empty identifier
	CodeInvalidName ViolationCode = "INVALID_NAME"

	// CodeInvalidValue means an action, relation kind, auth scheme or
	// database kind is outside its supported set
	CodeInvalidValue ViolationCode = "INVALID_VALUE"
)

// Violation is a single broken invariant
type Violation struct {
	Code    ViolationCode `json:"code"`
	Path    string        `json:"path"`
	Message string        `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return fmt.Sprintf("%s: %s", v.Code, v.Message)
	}
	return fmt.Sprintf("%s at %s: %s", v.Code, v.Path, v.Message)
}

// ValidationError carries every violation found in a candidate specification
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "invalid specification: " + strings.Join(parts, "; ")
}

// Codes returns the violation codes in the order they were found
func (e *ValidationError) Codes() []ViolationCode {
	codes := make([]ViolationCode, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = v.Code
	}
	return codes
}

// Has reports whether a violation with the given code was found
func (e *ValidationError) Has(code ViolationCode) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}
