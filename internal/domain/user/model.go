package user

// Principal is the verified identity attached to an authorized request.
type Principal struct {
	UserID      string
	DisplayName string
}
