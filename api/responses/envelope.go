package responses

// SuccessEnvelope wraps every JSON payload the API returns on success.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details are only present for codes that
// allow them, e.g. the offending line index on INDEX_OUT_OF_RANGE.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
