package schema

// Failure describes why an operation did not succeed.
type Failure struct {
	Kind    string `json:"kind"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// Envelope wraps every caller-facing result as success or failure.
type Envelope struct {
	OK    bool     `json:"ok"`
	Data  any      `json:"data,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// Failed wraps a failure in an envelope.
func Failed(f Failure) Envelope {
	return Envelope{OK: false, Error: &f}
}
