package handlers

import (
	"errors"
	"net/http"
	"strings"

	"member-ledger/internal/models"
	"member-ledger/internal/storage"
)

type memberRequest struct {
	Nome        *string   `json:"nome"`
	Telefone    *string   `json:"telefone"`
	Endereco    *string   `json:"endereco"`
	Funcao      *string   `json:"funcao"`
	DataEntrada *string   `json:"data_entrada"`
	Observacoes *string   `json:"observacoes"`
	Ativo       *flexBool `json:"ativo"`
}

// member converts the request into a full row. Omitted ativo means active.
func (req *memberRequest) member() (*models.Member, bool) {
	if req.Nome == nil || strings.TrimSpace(*req.Nome) == "" {
		return nil, false
	}
	m := &models.Member{
		Nome:        strings.TrimSpace(*req.Nome),
		Telefone:    req.Telefone,
		Endereco:    req.Endereco,
		Funcao:      req.Funcao,
		DataEntrada: req.DataEntrada,
		Observacoes: req.Observacoes,
		Ativo:       true,
	}
	if req.Ativo != nil {
		m.Ativo = bool(*req.Ativo)
	}
	return m, true
}

// ListMembers returns every member ordered by name.
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListMembers(r.Context())
	if err != nil {
		h.logger.Error("ListMembers error", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro ao listar")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// CreateMember inserts a member. Only nome is required.
func (h *Handlers) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	m, ok := req.member()
	if !ok {
		writeError(w, http.StatusBadRequest, "Nome é obrigatório")
		return
	}

	id, err := h.store.CreateMember(r.Context(), m)
	if err != nil {
		h.logger.Error("CreateMember error", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro ao inserir")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// UpdateMember replaces every field of a member. Unknown ids report zero changes.
func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	m, ok := req.member()
	if !ok {
		writeError(w, http.StatusBadRequest, "Nome é obrigatório")
		return
	}
	m.ID = id

	changes, err := h.store.UpdateMember(r.Context(), m)
	if err != nil {
		h.logger.Error("UpdateMember error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

// DeleteMember removes a member that owns no contributions.
func (h *Handlers) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	changes, err := h.store.DeleteMember(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrMemberHasContributions) {
			writeError(w, http.StatusConflict, "Membro possui contribuições")
			return
		}
		h.logger.Error("DeleteMember error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Erro ao excluir")
		return
	}
	if changes > 0 {
		h.auditDelete(r, "membro", id)
	}
	writeJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}
