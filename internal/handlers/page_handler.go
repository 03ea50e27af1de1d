package handlers

import (
	"log"
	"net/http"

	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/views"
)

const recentVehicles = 6

type PageHandler struct {
	*Base
	Inventory *services.InventoryService
}

func NewPageHandler(base *Base, inventory *services.InventoryService) *PageHandler {
	return &PageHandler{Base: base, Inventory: inventory}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	recent, err := h.Inventory.Recent(r.Context(), recentVehicles)
	if err != nil {
		// the home page still renders without the strip
		log.Printf("[Pages] recent vehicles: %v", err)
	}
	h.render(w, r, http.StatusOK, "home", views.Page{Title: "Home", Data: recent})
}
