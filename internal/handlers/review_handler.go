package handlers

import (
	"net/http"
	"strconv"

	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/middleware"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/views"
	"github.com/dgeemedia/cse340-backend/pkg/utils"
)

type ReviewHandler struct {
	*Base
	Reviews *services.ReviewService
}

func NewReviewHandler(base *Base, reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{Base: base, Reviews: reviews}
}

func vehiclePath(invID int) string {
	return "/inv/detail/" + strconv.Itoa(invID) + "#reviews"
}

func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	req := models.ReviewRequest{
		InventoryID: r.FormValue("inv_id"),
		Rating:      r.FormValue("rating"),
		Comment:     r.FormValue("comment"),
	}
	back := "/"
	if id := atoi(req.InventoryID); id > 0 {
		back = vehiclePath(id)
	}

	review, err := h.Reviews.Add(r.Context(), identity(r), req)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	if middleware.WantsJSON(r) {
		utils.JSON(w, http.StatusCreated, review)
		return
	}
	flash.Set(w, flash.Success, "Thank you for your review.")
	http.Redirect(w, r, vehiclePath(review.InventoryID), http.StatusSeeOther)
}

func (h *ReviewHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	h.owned(w, r, "review-edit", "Edit review")
}

func (h *ReviewHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	h.owned(w, r, "review-delete", "Delete review")
}

func (h *ReviewHandler) owned(w http.ResponseWriter, r *http.Request, page, title string) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, services.ErrNotFound, "/account/")
		return
	}
	review, err := h.Reviews.GetOwned(r.Context(), identity(r), id)
	if err != nil {
		h.fail(w, r, err, "/account/")
		return
	}
	h.render(w, r, http.StatusOK, page, views.Page{Title: title, Data: review})
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	req := models.ReviewRequest{
		ReviewID: r.FormValue("review_id"),
		Rating:   r.FormValue("rating"),
		Comment:  r.FormValue("comment"),
	}
	review, err := h.Reviews.Update(r.Context(), identity(r), req)
	if err != nil {
		back := "/account/"
		if services.ValidationMessages(err) != nil && atoi(req.ReviewID) > 0 {
			back = "/reviews/edit/" + req.ReviewID
		}
		h.fail(w, r, err, back)
		return
	}
	if middleware.WantsJSON(r) {
		utils.JSON(w, http.StatusOK, review)
		return
	}
	flash.Set(w, flash.Success, "Your review has been updated.")
	http.Redirect(w, r, "/account/", http.StatusSeeOther)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := atoi(r.FormValue("review_id"))
	if id <= 0 {
		id, _ = pathID(r, "id")
	}
	if _, err := h.Reviews.Delete(r.Context(), identity(r), id); err != nil {
		h.fail(w, r, err, "/account/")
		return
	}
	if middleware.WantsJSON(r) {
		utils.JSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	flash.Set(w, flash.Success, "Your review has been deleted.")
	http.Redirect(w, r, "/account/", http.StatusSeeOther)
}

// Reply posts a staff answer to a client review or a client answer to a
// staff reply thread.
func (h *ReviewHandler) Reply(w http.ResponseWriter, r *http.Request) {
	req := models.ReplyRequest{
		ReviewID:      r.FormValue("review_id"),
		ParentReplyID: r.FormValue("parent_reply_id"),
		Text:          r.FormValue("reply_text"),
	}
	reply, review, err := h.Reviews.Reply(r.Context(), identity(r), req)
	if err != nil {
		h.fail(w, r, err, sameSiteReferer(r, "/"))
		return
	}
	if middleware.WantsJSON(r) {
		utils.JSON(w, http.StatusCreated, reply)
		return
	}
	flash.Set(w, flash.Success, "Reply posted.")
	http.Redirect(w, r, vehiclePath(review.InventoryID), http.StatusSeeOther)
}

// JSON serves one page of a vehicle's reviews with the rating summary.
func (h *ReviewHandler) JSON(w http.ResponseWriter, r *http.Request) {
	invID, ok := pathID(r, "inv_id")
	if !ok {
		utils.Error(w, http.StatusBadRequest, services.MsgInvalidVehicle)
		return
	}
	q := r.URL.Query()
	page, err := h.Reviews.ListForVehicle(r.Context(), invID, atoi(q.Get("limit")), atoi(q.Get("offset")))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, MsgTryAgain)
		return
	}
	summary, err := h.Reviews.Summary(r.Context(), invID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, MsgTryAgain)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"page": page, "summary": summary})
}
