package types

// Submission is one payload handed to the transport.
type Submission struct {
	Hash      string `json:"hash"`
	Target    string `json:"target"`
	Via       string `json:"via"`
	Payload   string `json:"payload"`
	Ops       string `json:"ops"`
	Timestamp int64  `json:"timestamp"`
}
