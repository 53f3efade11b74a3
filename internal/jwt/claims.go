package jwt

import jwtv5 "github.com/golang-jwt/jwt/v5"

// Kind distingue access de refresh (claim "typ").
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// MetaData origen del login.
type MetaData struct {
	RegisteredIP string `json:"registeredIP"`
	UserAgent    string `json:"userAgent"`
}

// Claims del token. paramID es el id con el que se emitió (hoy igual a id).
type Claims struct {
	ID       string   `json:"id"`
	Role     string   `json:"role,omitempty"`
	MetaData MetaData `json:"metaData"`
	ParamID  string   `json:"paramID,omitempty"`
	Type     Kind     `json:"typ"`
	jwtv5.RegisteredClaims
}

// Subject datos del usuario a firmar.
type Subject struct {
	UserID   string
	Role     string
	MetaData MetaData
}
