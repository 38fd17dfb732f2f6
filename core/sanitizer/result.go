package sanitizer

// Result is produced fresh by every sanitizer call.
type Result struct {
	Sanitized   string   `json:"sanitized"`
	WasModified bool     `json:"was_modified"`
	Violations  []string `json:"violations,omitempty"`
	IsValid     bool     `json:"is_valid"`
}

// Violation messages shared by several sanitizers.
const (
	ViolationEmptyValue   = "Empty value not allowed"
	ViolationInvalidEmail = "Invalid email format"
	ViolationInvalidPhone = "Invalid phone number: must contain between 10 and 15 digits"
	ViolationInvalidNum   = "Invalid number format"
)

func emptyResult(allowEmpty bool) Result {
	r := Result{IsValid: allowEmpty}
	if !allowEmpty {
		r.Violations = []string{ViolationEmptyValue}
	}
	return r
}
