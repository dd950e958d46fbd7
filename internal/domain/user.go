package domain

// User is a backoffice operator.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// UserRequest is the body for creating or updating a backoffice user.
type UserRequest struct {
	Name     string `json:"name,omitempty" validate:"required_without=Partial,omitempty,min=2"`
	Email    string `json:"email,omitempty" validate:"required_without=Partial,omitempty,email"`
	Password string `json:"password,omitempty" validate:"required_without=Partial,omitempty,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=Admin Operator Financial"`
	IsActive *bool  `json:"isActive,omitempty"`

	Partial bool `json:"-"`
}
