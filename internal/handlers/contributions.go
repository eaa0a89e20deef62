package handlers

import (
	"net/http"
	"strings"
	"time"

	"member-ledger/internal/models"
	"member-ledger/internal/storage"
)

const missingContributionFields = "Campos obrigatórios: membro_id, tipo, valor, data"

// MaxValor bounds a single contribution so month totals stay finite.
const MaxValor = 1e12

type contributionRequest struct {
	MembroID    *flexInt   `json:"membro_id"`
	Tipo        *string    `json:"tipo"`
	Valor       *flexFloat `json:"valor"`
	Data        *string    `json:"data"`
	Observacoes *string    `json:"observacoes"`
}

// contribution validates the request. Absent fields and invalid values are
// reported separately; a zero amount is invalid, not absent.
func (req *contributionRequest) contribution() (*models.Contribution, string) {
	if req.MembroID == nil || req.Tipo == nil || req.Valor == nil || req.Data == nil ||
		strings.TrimSpace(*req.Tipo) == "" || strings.TrimSpace(*req.Data) == "" {
		return nil, missingContributionFields
	}
	if *req.MembroID <= 0 {
		return nil, "membro_id inválido"
	}
	if *req.Valor <= 0 {
		return nil, "Valor deve ser maior que zero"
	}
	if *req.Valor > MaxValor {
		return nil, "Valor acima do limite permitido"
	}
	data := strings.TrimSpace(*req.Data)
	if _, err := time.Parse(storage.DateLayout, data); err != nil {
		return nil, "Data inválida, use AAAA-MM-DD"
	}

	return &models.Contribution{
		MembroID:    int64(*req.MembroID),
		Tipo:        strings.TrimSpace(*req.Tipo),
		Valor:       float64(*req.Valor),
		Data:        data,
		Observacoes: req.Observacoes,
	}, ""
}

// ListContributions returns all contributions with their member's name, newest first.
func (h *Handlers) ListContributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := h.store.ListContributions(r.Context())
	if err != nil {
		h.logger.Error("ListContributions error", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro ao listar")
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

// CreateContribution records a contribution. A reference to an unknown member
// is rejected by the storage engine and reported as a server error.
func (h *Handlers) CreateContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	c, msg := req.contribution()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := h.store.CreateContribution(r.Context(), c)
	if err != nil {
		h.logger.Error("CreateContribution error", "error", err, "membro_id", c.MembroID)
		writeError(w, http.StatusInternalServerError, "Erro ao inserir")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// DeleteContribution removes a contribution. Unknown ids report zero changes.
func (h *Handlers) DeleteContribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	changes, err := h.store.DeleteContribution(r.Context(), id)
	if err != nil {
		h.logger.Error("DeleteContribution error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Erro ao excluir")
		return
	}
	if changes > 0 {
		h.auditDelete(r, "contribuicao", id)
	}
	writeJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

// Summary renders the dashboard figures for the server's current month.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Summary(r.Context(), h.now())
	if err != nil {
		h.logger.Error("Summary error", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro no resumo")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
