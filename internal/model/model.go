// Package model declares the persisted entities and the value kinds of
// their fields.
package model

// Kind is the value kind of an entity field.
type Kind int

const (
	Text Kind = iota + 1
	Identifier
	Enumerated
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Identifier:
		return "identifier"
	case Enumerated:
		return "enumerated"
	default:
		return "unknown"
	}
}

// Field declares one property of an entity.
type Field struct {
	Name        string
	Kind        Kind
	Enum        *Enum // set when Kind is Enumerated
	Description string
}

// Entity is implemented by every persisted type exposed as a GraphQL
// object. Fields lists the direct properties; Get reads one of them by
// name.
type Entity interface {
	TypeName() string
	Fields() []Field
	Get(name string) (any, bool)
}

var (
	_ Entity = User{}
	_ Entity = Post{}
)

// User is a record of the users collection.
type User struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

func (User) TypeName() string { return "User" }

func (User) Fields() []Field {
	return []Field{
		{Name: "id", Kind: Identifier},
		{Name: "name", Kind: Text},
		{Name: "email", Kind: Text},
		{Name: "phone", Kind: Text},
	}
}

func (u User) Get(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "name":
		return u.Name, true
	case "email":
		return u.Email, true
	case "phone":
		return u.Phone, true
	}
	return nil, false
}

// Post is a record of the posts collection. CreatorID references a User
// but is not checked when the post is written.
type Post struct {
	ID          string `json:"id" bson:"_id"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Status      Status `json:"status" bson:"status"`
	CreatorID   string `json:"creatorId" bson:"creatorId"`
}

func (Post) TypeName() string { return "Post" }

func (Post) Fields() []Field {
	return []Field{
		{Name: "id", Kind: Identifier},
		{Name: "title", Kind: Text},
		{Name: "description", Kind: Text},
		{Name: "status", Kind: Enumerated, Enum: PostStatus},
		{Name: "creatorId", Kind: Identifier},
	}
}

func (p Post) Get(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "title":
		return p.Title, true
	case "description":
		return p.Description, true
	case "status":
		return string(p.Status), true
	case "creatorId":
		return p.CreatorID, true
	}
	return nil, false
}
