package models

// Draft is the output of one content generation call, before it is persisted
// as an Article.
type Draft struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}
