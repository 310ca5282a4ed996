package web

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

func (h *Handler) listAnimals(w http.ResponseWriter, r *http.Request) {
	status := core.AnimalStatus(r.URL.Query().Get("status"))
	animals, err := h.svc.ListAnimals(r.Context(), status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, animals)
}

func (h *Handler) getAnimal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	animal, err := h.svc.GetAnimal(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, animal)
}

func (h *Handler) createAnimal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string          `json:"name"`
		Species       string          `json:"species"`
		Breed         string          `json:"breed"`
		BirthDate     time.Time       `json:"birth_date"`
		CurrentWeight decimal.Decimal `json:"current_weight"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	in := core.CreateAnimalInput{
		Name:          req.Name,
		Species:       req.Species,
		Breed:         req.Breed,
		BirthDate:     req.BirthDate,
		CurrentWeight: req.CurrentWeight,
	}
	if claims := authFromContext(r.Context()); claims != nil {
		in.CreatedBy = &claims.UserID
	}

	animal, err := h.svc.CreateAnimal(r.Context(), in)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, animal)
}

func (h *Handler) updateAnimal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req core.UpdateAnimalInput
	if !decodeJSON(w, r, &req) {
		return
	}
	animal, err := h.svc.UpdateAnimal(r.Context(), id, req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, animal)
}

func (h *Handler) deleteAnimal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAnimal(r.Context(), id, actorEntry(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordWeight(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req struct {
		Weight decimal.Decimal `json:"weight"`
		Date   time.Time       `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var measuredBy *int
	if claims := authFromContext(r.Context()); claims != nil {
		measuredBy = &claims.UserID
	}
	animal, err := h.svc.RecordWeight(r.Context(), id, req.Weight, req.Date, measuredBy)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, animal)
}

func (h *Handler) weightHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.GetWeightHistory(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

func (h *Handler) setAnimalPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req struct {
		Price decimal.Decimal `json:"price"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	animal, err := h.svc.SetAnimalPrice(r.Context(), id, req.Price)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, animal)
}

func (h *Handler) setAnimalStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status core.AnimalStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	animal, err := h.svc.SetAnimalStatus(r.Context(), id, req.Status, actorEntry(r))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, animal)
}

func (h *Handler) listCarcasses(w http.ResponseWriter, r *http.Request) {
	status := core.CarcassStatus(r.URL.Query().Get("status"))
	carcasses, err := h.svc.ListCarcasses(r.Context(), status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, carcasses)
}

func (h *Handler) addCarcass(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnimalID      *int            `json:"animal_id"`
		Breed         string          `json:"breed"`
		BirthDate     *time.Time      `json:"birth_date"`
		SlaughterDate time.Time       `json:"slaughter_date"`
		CarcassWeight decimal.Decimal `json:"carcass_weight"`
		Price         decimal.Decimal `json:"price"`
		Description   *string         `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	in := core.AddCarcassInput{
		AnimalID:      req.AnimalID,
		Breed:         req.Breed,
		BirthDate:     req.BirthDate,
		SlaughterDate: req.SlaughterDate,
		CarcassWeight: req.CarcassWeight,
		Price:         req.Price,
		Description:   req.Description,
	}
	if claims := authFromContext(r.Context()); claims != nil {
		in.CreatedBy = &claims.UserID
	}

	carcass, err := h.svc.AddCarcass(r.Context(), in)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, carcass)
}

func (h *Handler) setCarcassStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status core.CarcassStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	carcass, err := h.svc.UpdateCarcassStatus(r.Context(), id, req.Status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, carcass)
}

func (h *Handler) deleteCarcass(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCarcass(r.Context(), id, actorEntry(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
