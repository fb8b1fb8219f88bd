package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/request"
)

// MaxVaultPayloadBytes bounds the stored ciphertext blob
const MaxVaultPayloadBytes = 512 * 1024

// VaultHandler handles vault requests. The payload is an opaque ciphertext
// blob; the server stores and returns it but never interprets it.
type VaultHandler struct {
	vaults database.VaultRepositoryInterface
	logger *zap.Logger
}

// NewVaultHandler creates a new vault handler
func NewVaultHandler(vaults database.VaultRepositoryInterface, zapLogger *zap.Logger) *VaultHandler {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &VaultHandler{vaults: vaults, logger: zapLogger}
}

// RegisterRoutes registers vault routes on the given router
// The router should already have the /vault prefix
func (h *VaultHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetVault).Methods("GET")
	r.HandleFunc("", h.UpdateVault).Methods("PUT")
}

// UpdateVaultRequest carries the replacement ciphertext payload
type UpdateVaultRequest struct {
	Vault string `json:"vault"`
}

// GetVault returns the caller's vault payload and salt
func (h *VaultHandler) GetVault(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vault, err := h.vaults.GetByUserID(r.Context(), user.ID)
	if err != nil {
		// Provisioning is atomic with account creation, so a missing vault
		// is a data integrity problem, not a client error.
		if errors.Is(err, sql.ErrNoRows) {
			h.logger.Error("vault_missing_for_account", zap.String("user_id", user.ID.String()))
			respondJSONError(w, http.StatusInternalServerError, "Vault Unavailable", "Vault record is missing")
			return
		}
		h.logger.Error("vault_load_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Vault Unavailable", "Could not load the vault")
		return
	}

	respondJSON(w, http.StatusOK, vault)
}

// UpdateVault replaces the caller's vault payload
func (h *VaultHandler) UpdateVault(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpdateVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if len(req.Vault) > MaxVaultPayloadBytes {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "Vault payload exceeds the size limit")
		return
	}

	if err := h.vaults.UpdatePayload(r.Context(), user.ID, req.Vault); err != nil {
		h.logger.Error("vault_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Vault Update Failed", "Could not store the vault")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}
