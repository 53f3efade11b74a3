// Package projects contiene DTOs del alta de proyectos (tenants).
package projects

// RegisterRequest body de POST /projects/register/projects.
type RegisterRequest struct {
	Project   map[string]any `json:"project"`
	Company   map[string]any `json:"company,omitempty"`
	SuperUser *SuperUser     `json:"superUser,omitempty"`
}

// SuperUser administrador inicial del proyecto.
type SuperUser struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// RegisterResult resultado del alta.
type RegisterResult struct {
	Message   string         `json:"message"`
	Project   map[string]any `json:"project"`
	Company   map[string]any `json:"company"`
	SuperUser SuperUser      `json:"superUser"`
}
