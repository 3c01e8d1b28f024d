package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/uslugi_go_server/internal/pkg/response"
	"github.com/qs3c/uslugi_go_server/internal/service"
)

type MasterHandler struct {
	rankingService *service.RankingService
}

func NewMasterHandler(rankingService *service.RankingService) *MasterHandler {
	return &MasterHandler{
		rankingService: rankingService,
	}
}

// Top returns the composed ranking: promoted masters first, then the rest by
// reputation.
// GET /api/v1/masters/top?city=Almaty&category_id=2
func (h *MasterHandler) Top(c *gin.Context) {
	city := c.Query("city")

	var categoryID *int64
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.ParamError(c, "invalid category_id")
			return
		}
		categoryID = &id
	}

	masters, err := h.rankingService.Rank(city, categoryID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, masters)
}
