package models

import "time"

// User represents a login account.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"senha_hash" json:"-"`
	Perfil       string `db:"perfil" json:"perfil"`
	Ativo        bool   `db:"ativo" json:"ativo"`
}

// SessionUser is the authenticated-user payload kept in a session.
type SessionUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Perfil   string `json:"perfil"`
}

// SessionUser returns the session payload for u.
func (u *User) SessionUser() SessionUser {
	return SessionUser{ID: u.ID, Username: u.Username, Perfil: u.Perfil}
}

// Member represents a person on the organization's roster.
type Member struct {
	ID          int64   `db:"id" json:"id"`
	Nome        string  `db:"nome" json:"nome"`
	Telefone    *string `db:"telefone" json:"telefone"`
	Endereco    *string `db:"endereco" json:"endereco"`
	Funcao      *string `db:"funcao" json:"funcao"`
	DataEntrada *string `db:"data_entrada" json:"data_entrada"`
	Observacoes *string `db:"observacoes" json:"observacoes"`
	Ativo       bool    `db:"ativo" json:"ativo"`
}

// Contribution represents a dated monetary entry attributed to one member.
// MemberName is only populated by queries joining the members table.
type Contribution struct {
	ID          int64   `db:"id" json:"id"`
	MembroID    int64   `db:"membro_id" json:"membro_id"`
	Tipo        string  `db:"tipo" json:"tipo"`
	Valor       float64 `db:"valor" json:"valor"`
	Data        string  `db:"data" json:"data"`
	Observacoes *string `db:"observacoes" json:"observacoes"`
	MembroNome  string  `db:"membro_nome" json:"membro_nome,omitempty"`
}

// Summary is the dashboard payload.
type Summary struct {
	TotalMembros int64          `json:"totalMembros"`
	TotalMes     float64        `json:"totalMes"`
	Ultimas      []Contribution `json:"ultimas"`
}

// Session represents a stored session record.
type Session struct {
	Token     string      `json:"token"`
	User      SessionUser `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}
