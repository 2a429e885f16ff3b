package domain

import "time"

// Roles an actor can hold. "Utente" additionally carries a secondary
// user-type classification through the actor_user_types join.
const (
	RoleOperator       = "Operatore"
	RoleAdministrator  = "Amministratore"
	RoleUser           = "Utente"
	RoleCenterOperator = "OperatoreCentro"
)

// ValidRoles lists the roles accepted at registration.
var ValidRoles = []string{RoleOperator, RoleAdministrator, RoleUser, RoleCenterOperator}

// User-type classifications for role Utente.
var ValidUserTypes = []string{"Privato", "Canale sociale", "centro riciclo"}

// Actor is an authenticated identity. It owns zero or more sessions.
type Actor struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Surname      string // optional for some user types
	Role         string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// UserType is the secondary classification attached to actors with role Utente.
type UserType struct {
	Type    string
	Address string
	Phone   string
	Email   string
}
