package types

// SecretString holds a sensitive value (webhook signing secret, database
// password) and redacts it in all string and JSON formatting paths. The raw
// value is only reachable through Unmask.
type SecretString string

const redacted = "***REDACTED***"

// String implements fmt.Stringer with redaction.
func (s SecretString) String() string {
	return redacted
}

// MarshalJSON redacts the value in JSON output.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Unmask returns the raw secret value.
func (s SecretString) Unmask() string {
	return string(s)
}
