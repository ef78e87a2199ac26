package domain

// Customer as stored by the identity side of the system. GeneratedID is the
// opaque identifier embedded in bearer tokens; CustomerID is the relational
// key the rest of the schema references.
type Customer struct {
	CustomerID  int64
	GeneratedID string
	Name        string
	Email       string
	PhoneNumber string
}

// Identity is the resolved view of a bearer credential, read-only for the
// order core.
type Identity struct {
	CustomerID  int64
	GeneratedID string
	Email       string
}
