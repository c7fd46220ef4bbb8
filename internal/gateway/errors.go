package gateway

// ValidationError is a malformed or missing route request parameter.
// Msg is safe to show to the client.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

const (
	msgMissingEndpoints   = "start and end required (format: lon,lat)"
	msgInvalidCoordinates = "invalid coordinates, expected lon,lat within range"
)
