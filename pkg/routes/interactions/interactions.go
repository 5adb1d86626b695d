package interactions

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/appcontext"
	"github.com/Ramsey-B/clover/pkg/interactions"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers interaction routes
func Register(g *echo.Group) {
	g.POST("", Record)
	g.GET("/listings/:listing_type/:listing_id", GetListingDetails)
}

// Record records the caller's preference on a listing
func Record(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "interactions_handler.Record")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req models.RecordInteractionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*interactions.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	response, err := service.RecordInteraction(ctx, userID, req.ListingID, models.ListingType(req.ListingType), models.InteractionType(req.InteractionType))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// GetListingDetails returns a listing's like count and the caller's own
// interaction when authenticated
func GetListingDetails(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "interactions_handler.GetListingDetails")
	defer span.End()

	listingType := models.ListingType(c.Param("listing_type"))
	listingID := c.Param("listing_id")
	userID := appcontext.GetUserID(ctx)

	ctx, service, err := ectoinject.GetContext[*interactions.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	details, err := service.GetListingInteractionDetails(ctx, listingID, listingType, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, details)
}
