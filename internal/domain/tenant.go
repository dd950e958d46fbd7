package domain

// ============================================================
// Tenants: Client and ClientUser as served by the backend
// ============================================================

// ClientStatus is the lifecycle status shared by clients and client users.
type ClientStatus string

const (
	ClientStatusPending   ClientStatus = "PENDING"
	ClientStatusConfirmed ClientStatus = "CONFIRMED"
	ClientStatusApproved  ClientStatus = "APPROVED"
	ClientStatusExcluded  ClientStatus = "EXCLUDED"
)

// ClientUserRole is the role of a login identity inside a tenant.
type ClientUserRole string

const (
	RoleClientOwner     ClientUserRole = "ClientOwner"
	RoleClientAdmin     ClientUserRole = "ClientAdmin"
	RoleClientFinancial ClientUserRole = "ClientFinancial"
	RoleClientOperator  ClientUserRole = "ClientOperator"
)

// Address is the postal address collected by the wizard.
type Address struct {
	ZipCode    string `json:"zipCode" validate:"required,cep"`
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required,len=2,alpha"`
}

// Client is a tenant organization account.
type Client struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	CpfCnpj    string       `json:"cpfCnpj"`
	ZipCode    string       `json:"zipCode,omitempty"`
	Street     string       `json:"street,omitempty"`
	Number     string       `json:"number,omitempty"`
	Complement string       `json:"complement,omitempty"`
	District   string       `json:"district,omitempty"`
	City       string       `json:"city,omitempty"`
	State      string       `json:"state,omitempty"`
	Status     ClientStatus `json:"status,omitempty"`
}

// CreateClientRequest is the body for POST /clients.
type CreateClientRequest struct {
	Name    string `json:"name"`
	CpfCnpj string `json:"cpfCnpj"`
}

// UpdateClientRequest is the body for PATCH /clients/{id}. Empty fields are omitted.
type UpdateClientRequest struct {
	Name       string       `json:"name,omitempty"`
	CpfCnpj    string       `json:"cpfCnpj,omitempty" validate:"omitempty,cpfcnpj"`
	ZipCode    string       `json:"zipCode,omitempty" validate:"omitempty,cep"`
	Street     string       `json:"street,omitempty"`
	Number     string       `json:"number,omitempty"`
	Complement string       `json:"complement,omitempty"`
	District   string       `json:"district,omitempty"`
	City       string       `json:"city,omitempty"`
	State      string       `json:"state,omitempty" validate:"omitempty,len=2,alpha"`
	Status     ClientStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING CONFIRMED APPROVED EXCLUDED"`
}

// ClientUser is an individual login identity belonging to a Client.
type ClientUser struct {
	ID       string         `json:"id"`
	ClientID string         `json:"clientId"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	CpfCnpj  string         `json:"cpfCnpj"`
	Phone    string         `json:"phone"`
	Role     ClientUserRole `json:"role"`
	Status   ClientStatus   `json:"status,omitempty"`
}

// CreateClientUserRequest is the body for POST /client-users.
type CreateClientUserRequest struct {
	ClientID string         `json:"clientId"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	CpfCnpj  string         `json:"cpfCnpj"`
	Phone    string         `json:"phone"`
	Role     ClientUserRole `json:"role"`
}

// UpdateClientUserRequest is the body for PATCH /client-users/{id}.
type UpdateClientUserRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	CpfCnpj  string `json:"cpfCnpj,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
}
