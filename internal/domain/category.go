package domain

// CategoryNode is a node of the marketplace seller taxonomy as returned by the API
type CategoryNode struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Children []CategoryNode `json:"children,omitempty"` // nil and empty are equivalent
}

// FlatCategory is a taxonomy node with its fully qualified path, e.g. "Parent > Child"
type FlatCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryPathSeparator joins ancestor names in a FlatCategory path
const CategoryPathSeparator = " > "
