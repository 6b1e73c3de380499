package generate

import "errors"

// ErrorCodeDescriptionTooShort is reported for descriptions with fewer than
// MinWords words
const ErrorCodeDescriptionTooShort = "DESCRIPTION_TOO_SHORT"

// MinWords is the shortest description the analysis accepts
const MinWords = 3

// ErrDescriptionTooShort is returned before analysis for descriptions that
// are too short to extract anything from
var ErrDescriptionTooShort = errors.New("description is too short")
