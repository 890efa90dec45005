package model

// EnumValue pairs the token clients send and receive with the string
// that is persisted.
type EnumValue struct {
	Token       string
	Value       string
	Description string
}

// Enum is a fixed set of named values.
type Enum struct {
	Name        string
	Description string
	Values      []EnumValue
}

// Value returns the stored value for a client token.
func (e *Enum) Value(token string) (string, bool) {
	for _, v := range e.Values {
		if v.Token == token {
			return v.Value, true
		}
	}
	return "", false
}

// Token returns the client token for a stored value.
func (e *Enum) Token(value string) (string, bool) {
	for _, v := range e.Values {
		if v.Value == value {
			return v.Token, true
		}
	}
	return "", false
}

// Status is the persisted progress of a Post.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// DefaultStatusToken is the token applied when createPost omits status.
const DefaultStatusToken = "new"

// PostStatus is the single enum definition shared by post creation and
// update.
var PostStatus = &Enum{
	Name:        "PostStatus",
	Description: "Progress of a post.",
	Values: []EnumValue{
		{Token: "new", Value: string(StatusNotStarted)},
		{Token: "progress", Value: string(StatusInProgress)},
		{Token: "completed", Value: string(StatusCompleted)},
	},
}
