// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package user

// User type stores user information. This is a vehicle that will follow the user for the active
// session
type User struct {
	// Current platform ID
	ID string
	// Current nickname known
	Name string

	// Admin is set by connectors that know the user's permissions in a server
	Admin bool
}

func New(name string) User {
	return User{
		Name: name,
	}
}
