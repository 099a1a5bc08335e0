package domain

// Address is one saved delivery address.
type Address struct {
	ID       string   `json:"id"`
	Line     string   `json:"line"`
	Location Location `json:"location"`
}

// Report stores an accepted user report submission.
type Report struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentName string `json:"attachment_name,omitempty"`
}
