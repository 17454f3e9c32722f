// internal/model/user.go
package model

// User is a logged-in staff member. It never carries a password.
type User struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Branch string `json:"branch"`
}

// Credential is a user entry of the fallback login list.
type Credential struct {
	Email    string
	Password string
	Name     string
	Branch   string
}

// User strips the password.
func (c Credential) User() User {
	return User{Email: c.Email, Name: c.Name, Branch: c.Branch}
}
