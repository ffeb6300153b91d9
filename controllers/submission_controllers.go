package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/services"
	"github.com/primechances/primechances-api/utils"
	"gorm.io/gorm"
)

// SubmissionController is the moderation surface: the pending queue and
// the approve / reject / publish / unpublish transitions.
type SubmissionController struct {
	DB    *gorm.DB
	Store *services.OpportunityService
}

func NewSubmissionController(db *gorm.DB, store *services.OpportunityService) *SubmissionController {
	return &SubmissionController{DB: db, Store: store}
}

// GetPendingSubmissions lists the moderation queue, oldest first.
func (sc *SubmissionController) GetPendingSubmissions(c *gin.Context) {
	var pending []models.Opportunity
	if err := sc.DB.Preload("Category").
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Find(&pending).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending submissions", pending)
}

// GetReviewTrail lists the decisions recorded against one opportunity.
func (sc *SubmissionController) GetReviewTrail(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var reviews []models.SubmissionReview
	if err := sc.DB.Where("opportunity_id = ?", id).
		Order("created_at ASC").
		Find(&reviews).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Review trail", reviews)
}

// ApproveSubmission moves pending → approved. Does not publish.
func (sc *SubmissionController) ApproveSubmission(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	reviewer, ok := loadCurrentUser(c, sc.DB)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req) // notes are optional

	opp, err := sc.Store.Approve(id, reviewer, req.Notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Submission approved", opp)
}

// RejectSubmission moves pending → rejected (terminal).
func (sc *SubmissionController) RejectSubmission(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	reviewer, ok := loadCurrentUser(c, sc.DB)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	opp, err := sc.Store.Reject(id, reviewer, req.Reason)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Submission rejected", opp)
}

// PublishOpportunity flips the visibility gate of an approved row.
func (sc *SubmissionController) PublishOpportunity(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	opp, err := sc.Store.Publish(id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Opportunity published", opp)
}

// UnpublishOpportunity hides a published row; it stays approved.
func (sc *SubmissionController) UnpublishOpportunity(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	opp, err := sc.Store.Unpublish(id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Opportunity unpublished", opp)
}

// CreateOpportunity is the admin create form, including the immediate
// publish shortcut: with publish=true the create+approve+publish happens
// as one unit attributed to the creating admin.
func (sc *SubmissionController) CreateOpportunity(c *gin.Context) {
	admin, ok := loadCurrentUser(c, sc.DB)
	if !ok {
		return
	}

	var input services.OpportunityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	opp, err := sc.Store.Create(input, admin)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Opportunity created", opp)
}

// UpdateOpportunity applies a partial merge.
func (sc *SubmissionController) UpdateOpportunity(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var patch services.UpdatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	opp, err := sc.Store.Update(id, patch)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Opportunity updated", opp)
}

// DeleteOpportunity removes the row and all dependent engagement records.
func (sc *SubmissionController) DeleteOpportunity(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := sc.Store.Delete(id); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Opportunity deleted", gin.H{"opportunity_id": id})
}
