package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/service"
	"github.com/go-chi/chi/v5"
)

type AddressAPI interface {
	CreateAddress(ctx context.Context, token string, in *service.AddressInput) (*domain.Address, error)
	ListAddresses(ctx context.Context, token string) ([]*domain.Address, error)
	GetAddress(ctx context.Context, token string, addressID int64) (*domain.Address, error)
	UpdateAddress(ctx context.Context, token string, addressID int64, in *service.AddressInput) (*domain.Address, error)
}

type AddressHandler struct {
	addresses AddressAPI
	timeout   time.Duration
}

func NewAddressHandler(addresses AddressAPI, timeout time.Duration) *AddressHandler {
	return &AddressHandler{addresses: addresses, timeout: timeout}
}

type addressResponseDTO struct {
	Success bool            `json:"success"`
	Address *domain.Address `json:"address"`
}

// POST /api/v1/addresses
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in service.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	addr, err := h.addresses.CreateAddress(ctx, bearerToken(r), &in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, addressResponseDTO{Success: true, Address: addr})
}

// GET /api/v1/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addrs, err := h.addresses.ListAddresses(ctx, bearerToken(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, addrs)
}

// GET /api/v1/addresses/{address_id}
func (h *AddressHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, err := strconv.ParseInt(chi.URLParam(r, "address_id"), 10, 64)
	if err != nil || addressID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return
	}

	addr, err := h.addresses.GetAddress(ctx, bearerToken(r), addressID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, addressResponseDTO{Success: true, Address: addr})
}

// PUT /api/v1/addresses/{address_id}
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, err := strconv.ParseInt(chi.URLParam(r, "address_id"), 10, 64)
	if err != nil || addressID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return
	}

	var in service.AddressInput
	if e2 := json.NewDecoder(r.Body).Decode(&in); e2 != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	addr, err := h.addresses.UpdateAddress(ctx, bearerToken(r), addressID, &in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, addressResponseDTO{Success: true, Address: addr})
}
