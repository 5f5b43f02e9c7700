package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/itchpulse/internal/domain/dto"
	"github.com/guttosm/itchpulse/internal/service"
)

// Handler provides HTTP handlers for the VWAP query endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate to the service layer for data access
//   - Translate service results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc service.VWAPService
}

// NewHandler constructs a Handler ready to be registered with the router.
func NewHandler(svc service.VWAPService) *Handler {
	return &Handler{svc: svc}
}

// GetVWAP handles GET /api/v1/vwap requests.
//
// Query Parameters:
//   - symbol (string, required): Security symbol (e.g., "AAPL").
//   - from_hour (int, optional): Lowest hour bucket to include.
//   - to_hour (int, optional): Highest hour bucket to include.
//
// GetVWAP godoc
// @Summary      Get hourly VWAP series by symbol
// @Description  Returns the cumulative hourly VWAP series reconstructed from the latest replayed capture
// @Tags         vwap
// @Accept       json
// @Produce      json
// @Param        symbol     query     string  true   "Security symbol" example(AAPL)
// @Param        from_hour  query     int     false  "Lowest hour bucket (1 = first hour after midnight)" example(10)
// @Param        to_hour    query     int     false  "Highest hour bucket" example(16)
// @Success      200        {object}  dto.VWAPResponse   "Success"
// @Failure      400        {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404        {object}  dto.ErrorResponse  "Not Found"
// @Failure      500        {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/vwap [get]
func (h *Handler) GetVWAP(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("symbol is required", nil))
		return
	}

	fromHour, err := parseHourParam(c, "from_hour")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid from_hour, expected a positive integer", err))
		return
	}
	toHour, err := parseHourParam(c, "to_hour")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid to_hour, expected a positive integer", err))
		return
	}
	if fromHour != nil && toHour != nil && *toHour < *fromHour {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("to_hour must not be lower than from_hour", nil))
		return
	}

	samples, err := h.svc.GetVWAP(c.Request.Context(), symbol, fromHour, toHour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch vwap series", err))
		return
	}
	if len(samples) == 0 {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("no data found", nil))
		return
	}

	resp := dto.VWAPResponse{
		Symbol:  symbol,
		Samples: make([]dto.VWAPPoint, 0, len(samples)),
	}
	for _, s := range samples {
		resp.Samples = append(resp.Samples, dto.VWAPPoint{Hour: s.HourBucket, VWAP: s.VWAP})
	}

	c.JSON(http.StatusOK, resp)
}

// parseHourParam reads an optional positive integer query parameter.
func parseHourParam(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	if v < 1 {
		return nil, strconv.ErrRange
	}
	return &v, nil
}
