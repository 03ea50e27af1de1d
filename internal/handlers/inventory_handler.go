package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/views"
	"github.com/dgeemedia/cse340-backend/pkg/utils"
)

var vehicleFields = []string{
	"inv_id", "classification_id", "inv_make", "inv_model", "inv_description",
	"inv_image", "inv_thumbnail", "inv_price", "inv_year", "inv_miles",
	"inv_color", "inv_body", "inv_transmission",
}

type InventoryHandler struct {
	*Base
	Inventory *services.InventoryService
	Reviews   *services.ReviewService
	Reports   *services.ReportService
}

func NewInventoryHandler(base *Base, inventory *services.InventoryService, reviews *services.ReviewService, reports *services.ReportService) *InventoryHandler {
	return &InventoryHandler{Base: base, Inventory: inventory, Reviews: reviews, Reports: reports}
}

// DetailPage is the data of the vehicle detail view.
type DetailPage struct {
	Vehicle    *models.Vehicle
	Reviews    *models.ReviewPage
	Summary    models.RatingSummary
	NextOffset int
}

type VehicleForm struct {
	Action  string
	Submit  string
	Uploads bool
}

func (h *InventoryHandler) ByClassification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "classificationId")
	if !ok {
		h.NotFound(w, r)
		return
	}
	vehicles, err := h.Inventory.ByClassification(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	title := "Vehicles"
	if classes, err := h.Inventory.Classifications(r.Context()); err == nil {
		for _, c := range classes {
			if c.ID == id {
				title = c.Name + " vehicles"
			}
		}
	}
	h.render(w, r, http.StatusOK, "classification", views.Page{Title: title, Data: vehicles})
}

func (h *InventoryHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	vehicle, err := h.Inventory.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}

	page, err := h.Reviews.ListForVehicle(r.Context(), id, 0, atoi(r.URL.Query().Get("offset")))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	summary, err := h.Reviews.Summary(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := DetailPage{Vehicle: vehicle, Reviews: page, Summary: summary}
	if next := page.Offset + page.Limit; next < page.Total {
		data.NextOffset = next
	}
	h.render(w, r, http.StatusOK, "detail", views.Page{
		Title: vehicle.Title(),
		Data:  data,
	})
}

// InventoryJSON backs the management page's classification picker.
func (h *InventoryHandler) InventoryJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "classification_id")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid classification.")
		return
	}
	vehicles, err := h.Inventory.ByClassification(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if vehicles == nil {
		vehicles = []*models.Vehicle{}
	}
	utils.JSON(w, http.StatusOK, vehicles)
}

func (h *InventoryHandler) SpecSheet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	pdf, err := h.Reports.VehicleSpecSheet(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	writePDF(w, fmt.Sprintf("vehicle-%d.pdf", id), pdf)
}

func (h *InventoryHandler) Report(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.Reports.InventoryReport(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writePDF(w, "inventory.pdf", pdf)
}

func writePDF(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *InventoryHandler) Management(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "inv-management", views.Page{Title: "Vehicle Management"})
}

func (h *InventoryHandler) AddClassificationPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "add-classification", views.Page{Title: "Add New Classification"})
}

func (h *InventoryHandler) AddClassification(w http.ResponseWriter, r *http.Request) {
	class, err := h.Inventory.AddClassification(r.Context(), r.FormValue("classification_name"))
	if err != nil {
		if messages := services.ValidationMessages(err); len(messages) > 0 {
			h.render(w, r, http.StatusBadRequest, "add-classification", views.Page{
				Title:  "Add New Classification",
				Errors: messages,
				Form:   formValues(r, "classification_name"),
			})
			return
		}
		h.serverError(w, r, err)
		return
	}
	flash.Set(w, flash.Success, "The "+class.Name+" classification was successfully added.")
	http.Redirect(w, r, "/inv/", http.StatusSeeOther)
}

func (h *InventoryHandler) AddVehiclePage(w http.ResponseWriter, r *http.Request) {
	h.vehicleForm(w, r, http.StatusOK, "Add New Vehicle", nil, map[string]string{
		"inv_image":     "/images/vehicles/placeholder.jpg",
		"inv_thumbnail": "/images/site/placeholder-tn.jpg",
	})
}

func (h *InventoryHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	req, err := h.vehicleRequest(r)
	if err != nil {
		h.vehicleFailed(w, r, "Add New Vehicle", err)
		return
	}
	v, err := h.Inventory.Add(r.Context(), req)
	if err != nil {
		h.vehicleFailed(w, r, "Add New Vehicle", err)
		return
	}
	flash.Set(w, flash.Success, "The "+v.Title()+" was successfully added.")
	http.Redirect(w, r, "/inv/", http.StatusSeeOther)
}

func (h *InventoryHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	v, err := h.Inventory.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/inv/")
		return
	}
	h.vehicleForm(w, r, http.StatusOK, "Edit "+v.Title(), nil, vehicleValues(v))
}

func (h *InventoryHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	req, err := h.vehicleRequest(r)
	if err != nil {
		h.vehicleFailed(w, r, "Edit Vehicle", err)
		return
	}
	v, err := h.Inventory.Update(r.Context(), req)
	if err != nil {
		h.vehicleFailed(w, r, "Edit Vehicle", err)
		return
	}
	flash.Set(w, flash.Success, "The "+v.Title()+" was successfully updated.")
	http.Redirect(w, r, "/inv/", http.StatusSeeOther)
}

func (h *InventoryHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	v, err := h.Inventory.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/inv/")
		return
	}
	h.render(w, r, http.StatusOK, "vehicle-delete", views.Page{Title: "Delete " + v.Title(), Data: v})
}

func (h *InventoryHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := atoi(r.FormValue("inv_id"))
	if err := h.Inventory.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "/inv/")
		return
	}
	flash.Set(w, flash.Success, "The vehicle was successfully deleted.")
	http.Redirect(w, r, "/inv/", http.StatusSeeOther)
}

func (h *InventoryHandler) vehicleForm(w http.ResponseWriter, r *http.Request, status int, title string, errs []string, values map[string]string) {
	form := VehicleForm{Action: "/inv/add-inventory", Submit: "Add vehicle", Uploads: h.Inventory.UploadsEnabled()}
	if values["inv_id"] != "" {
		form.Action, form.Submit = "/inv/update", "Save changes"
	}
	h.render(w, r, status, "vehicle-form", views.Page{Title: title, Errors: errs, Form: values, Data: form})
}

func (h *InventoryHandler) vehicleFailed(w http.ResponseWriter, r *http.Request, title string, err error) {
	if messages := services.ValidationMessages(err); len(messages) > 0 {
		h.vehicleForm(w, r, http.StatusBadRequest, title, messages, formValues(r, vehicleFields...))
		return
	}
	h.fail(w, r, err, "/inv/")
}

// vehicleRequest reads the vehicle form. An attached image is uploaded
// first and replaces the typed image paths.
func (h *InventoryHandler) vehicleRequest(r *http.Request) (models.VehicleRequest, error) {
	if err := r.ParseMultipartForm(services.MaxImageBytes + 1<<20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return models.VehicleRequest{}, fmt.Errorf("parse vehicle form: %w", err)
	}

	req := models.VehicleRequest{
		ID:               r.FormValue("inv_id"),
		ClassificationID: r.FormValue("classification_id"),
		Make:             r.FormValue("inv_make"),
		Model:            r.FormValue("inv_model"),
		Description:      r.FormValue("inv_description"),
		Image:            r.FormValue("inv_image"),
		Thumbnail:        r.FormValue("inv_thumbnail"),
		Price:            r.FormValue("inv_price"),
		Year:             r.FormValue("inv_year"),
		Miles:            r.FormValue("inv_miles"),
		Color:            r.FormValue("inv_color"),
		Body:             r.FormValue("inv_body"),
		Transmission:     r.FormValue("inv_transmission"),
	}

	file, header, err := r.FormFile("inv_upload")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return req, nil
	}
	if err != nil {
		return req, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageBytes+1))
	if err != nil {
		return req, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.Inventory.UploadImage(r.Context(), header.Filename, contentType, data)
	if err != nil {
		return req, err
	}
	req.Image, req.Thumbnail = url, url
	return req, nil
}

func vehicleValues(v *models.Vehicle) map[string]string {
	values := map[string]string{
		"inv_id":            strconv.Itoa(v.ID),
		"classification_id": strconv.Itoa(v.ClassificationID),
		"inv_make":          v.Make,
		"inv_model":         v.Model,
		"inv_description":   v.Description,
		"inv_image":         v.Image,
		"inv_thumbnail":     v.Thumbnail,
		"inv_price":         strconv.FormatFloat(v.Price, 'f', -1, 64),
		"inv_color":         v.Color,
		"inv_body":          v.Body,
		"inv_transmission":  v.Transmission,
	}
	if v.Year != nil {
		values["inv_year"] = strconv.Itoa(*v.Year)
	}
	if v.Miles != nil {
		values["inv_miles"] = strconv.Itoa(*v.Miles)
	}
	return values
}
