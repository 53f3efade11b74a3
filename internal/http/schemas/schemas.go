package schemas

import (
	dto "github.com/dropDatabas3/hellousers/internal/http/dto/users"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

// Valores de status de un usuario.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const nameMaxLength = 20

func body(path string, rules ...validation.Rule) validation.Field {
	return validation.Field{Path: path, In: validation.Body, Rules: rules}
}

func optionalBody(path string, rules ...validation.Rule) validation.Field {
	return validation.Field{Path: path, In: validation.Body, Optional: true, Rules: rules}
}

func query(path string, rules ...validation.Rule) validation.Field {
	return validation.Field{Path: path, In: validation.Query, Rules: rules}
}

func optionalQuery(path string, rules ...validation.Rule) validation.Field {
	return validation.Field{Path: path, In: validation.Query, Optional: true, Rules: rules}
}

func sensitive(f validation.Field) validation.Field {
	f.Sensitive = true
	return f
}

func str() []validation.Rule {
	return []validation.Rule{validation.NotEmpty(), validation.IsString()}
}

func name() []validation.Rule {
	return append(str(), validation.MaxLength(nameMaxLength))
}

// ─── Auth ───

// Login {tokenAuth}.
func Login() validation.Schema {
	return validation.Schema{
		sensitive(body("tokenAuth", str()...)),
	}
}

// PasswordCode {email, lang}. La cuenta tiene que existir en el proveedor.
func (c Checks) PasswordCode() validation.Schema {
	return validation.Schema{
		body("email", validation.NotEmpty(), validation.IsEmail(), c.IdentityEmailExists()),
		optionalBody("lang", validation.IsString()),
	}
}

// ResetPassword {code, lang}.
func ResetPassword() validation.Schema {
	return validation.Schema{
		body("code", str()...),
		optionalBody("lang", validation.IsString()),
	}
}

// ConfirmReset {oobCode, newPassword}.
func ConfirmReset() validation.Schema {
	return validation.Schema{
		body("oobCode", str()...),
		sensitive(body("newPassword", str()...)),
	}
}

// IdentityToken {email, password}.
func IdentityToken() validation.Schema {
	return validation.Schema{
		body("email", validation.NotEmpty(), validation.IsEmail()),
		sensitive(body("password", str()...)),
	}
}

// ─── Users ───

func profilePicture() []validation.Field {
	return []validation.Field{
		optionalBody("user.profilePicture", validation.IsObject()),
		optionalBody("user.profilePicture.url", validation.IsString()),
		optionalBody("user.profilePicture.fileName", validation.IsString()),
	}
}

// CreateUser {user:{...}, auth}.
func (c Checks) CreateUser() validation.Schema {
	s := validation.Schema{
		body("user", validation.NotEmpty(), validation.IsObject()),
		body("user.firstName", name()...),
		body("user.lastName", name()...),
		body("user.phone", append(str(), c.UniquePhone())...),
		body("user.role", str()...),
		body("user.email", validation.NotEmpty(), validation.IsEmail(), c.UniqueEmail()),
		body("user.status", validation.NotEmpty(), validation.OneOf(StatusActive, StatusInactive)),
	}
	s = append(s, profilePicture()...)
	return append(s, sensitive(body("auth", str()...)))
}

// PublicCreateUser igual a CreateUser sin role ni status.
func (c Checks) PublicCreateUser() validation.Schema {
	s := validation.Schema{
		body("user", validation.NotEmpty(), validation.IsObject()),
		body("user.firstName", name()...),
		body("user.lastName", name()...),
		body("user.phone", append(str(), c.UniquePhone())...),
		body("user.email", validation.NotEmpty(), validation.IsEmail(), c.UniqueEmail()),
	}
	s = append(s, profilePicture()...)
	return append(s, sensitive(body("auth", str()...)))
}

// UpdateUser {user:{id, ...}}. Solo id es obligatorio; la unicidad
// excluye al propio usuario. Claves fuera de dto.UpdatableFields son 400.
func (c Checks) UpdateUser() validation.Schema {
	s := validation.Schema{
		body("user", validation.NotEmpty(), validation.IsObject(),
			validation.KnownKeys(append([]string{"id"}, dto.UpdatableFields...)...)),
		body("user.id", validation.NotEmpty(), validation.IsAlphanumeric(), c.UserExists()),
		optionalBody("user.firstName", name()...),
		optionalBody("user.lastName", name()...),
		optionalBody("user.phone", append(str(), c.UniquePhone())...),
		optionalBody("user.role", str()...),
		optionalBody("user.email", validation.NotEmpty(), validation.IsEmail(), c.UniqueEmail()),
		optionalBody("user.status", validation.NotEmpty(), validation.OneOf(StatusActive, StatusInactive)),
	}
	return append(s, profilePicture()...)
}

// GetUser ?id | ?itemsPerPage&lastDocId&role&status.
func (c Checks) GetUser() validation.Schema {
	return validation.Schema{
		optionalQuery("id", validation.IsAlphanumeric(), c.UserExists()),
		optionalQuery("itemsPerPage", validation.IsNumeric(), validation.IsPositiveInt()),
		optionalQuery("lastDocId", validation.IsAlphanumeric(), c.UserExists()),
		optionalQuery("role", validation.NotEmpty()),
		optionalQuery("status", validation.OneOf(StatusActive, StatusInactive)),
	}
}

// UserID ?id obligatorio y existente (delete, upload).
func (c Checks) UserID() validation.Schema {
	return validation.Schema{
		query("id", validation.NotEmpty(), validation.IsAlphanumeric(), c.UserExists()),
	}
}

// ─── Projects ───

// RegisterProject {project:{name,...}, company?, superUser?:{email}}.
func (c Checks) RegisterProject() validation.Schema {
	return validation.Schema{
		body("project", validation.NotEmpty(), validation.IsObject()),
		body("project.name", str()...),
		optionalBody("project.roles", validation.NotEmpty()),
		optionalBody("company", validation.IsObject()),
		optionalBody("company.name", str()...),
		optionalBody("superUser", validation.IsObject()),
		optionalBody("superUser.email", validation.NotEmpty(), validation.IsEmail(), c.IdentityEmailFree()),
	}
}
