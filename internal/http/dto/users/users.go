// Package users contiene DTOs de los endpoints /users.
package users

// ProfilePicture foto de perfil del usuario.
type ProfilePicture struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// UserInput datos de alta de un usuario.
type UserInput struct {
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Phone          string          `json:"phone"`
	Role           string          `json:"role"`
	Email          string          `json:"email"`
	Status         string          `json:"status"`
	ProfilePicture *ProfilePicture `json:"profilePicture,omitempty"`
}

// UpdatableFields campos de users/{id} que acepta PUT /users/update/user
// (además de id).
var UpdatableFields = []string{"firstName", "lastName", "phone", "role", "email", "status", "profilePicture"}

// Fields documento a persistir en users/{id}.
func (u UserInput) Fields() map[string]any {
	out := map[string]any{
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"phone":     u.Phone,
		"role":      u.Role,
		"email":     u.Email,
		"status":    u.Status,
	}
	if u.ProfilePicture != nil {
		out["profilePicture"] = map[string]any{
			"url":      u.ProfilePicture.URL,
			"fileName": u.ProfilePicture.FileName,
		}
	}
	return out
}

// CreateUserRequest body de POST /users/create/user y /users/create/public/user.
type CreateUserRequest struct {
	User UserInput `json:"user"`
	// Auth contraseña inicial cifrada con la clave compartida (secretbox).
	Auth string `json:"auth"`
	Lang string `json:"lang,omitempty"`
}

// UpdateUserRequest body de PUT /users/update/user. User trae id y solo los
// campos a cambiar.
type UpdateUserRequest struct {
	User map[string]any `json:"user"`
}

// ListQuery query de GET /users/get/user.
type ListQuery struct {
	ID           string
	ItemsPerPage int
	LastDocID    string
	Role         string
	Status       string
}

// PageResponse data de la consulta paginada.
type PageResponse struct {
	Page       any    `json:"page"`
	TotalPages int    `json:"totalPages"`
	LastDocID  string `json:"lastDocId"`
}

// Upload foto subida por multipart.
type Upload struct {
	FileName string
	Data     []byte
}
