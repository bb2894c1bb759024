package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Guillaumeperrottet/selfkey-sub000/services"
	"github.com/Guillaumeperrottet/selfkey-sub000/utils"
)

type PricingOptionController struct {
	Establishments *services.EstablishmentService
	Options        *services.OptionService
}

func NewPricingOptionController(est *services.EstablishmentService, options *services.OptionService) *PricingOptionController {
	return &PricingOptionController{Establishments: est, Options: options}
}

// GetPricingOptions handles GET /establishments/:slug/pricing-options,
// returning the active catalog ordered for display.
func (pc *PricingOptionController) GetPricingOptions(c *gin.Context) {
	est, ok := loadEstablishment(c, pc.Establishments)
	if !ok {
		return
	}

	options, err := pc.Options.ListActive(c.Request.Context(), est.ID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load pricing options")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"options": options})
}
