package conversations

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/appcontext"
	"github.com/Ramsey-B/clover/pkg/conversations"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers conversation routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", GetOrCreate)
	g.GET("/unread", TotalUnread)
	g.GET("/:id/messages", GetMessages)
	g.POST("/:id/messages", SendMessage)
	g.POST("/:id/read", MarkAsRead)
}

// List returns the caller's conversations, newest activity first
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "conversations_handler.List")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	ctx, service, err := ectoinject.GetContext[*conversations.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	summaries, err := service.ListForUser(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summaries)
}

// GetOrCreate resolves the conversation between the caller and another
// user, creating it when absent
func GetOrCreate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "conversations_handler.GetOrCreate")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req models.GetOrCreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*conversations.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	conversation, _, err := service.GetOrCreate(ctx, userID, req.OtherUserID, &models.ConversationContext{
		PropertyID: req.PropertyID,
		RequestID:  req.RequestID,
	}, conversations.OriginDirect)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, conversation)
}

// TotalUnread returns the caller's badge count across all conversations
func TotalUnread(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "conversations_handler.TotalUnread")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	ctx, service, err := ectoinject.GetContext[*conversations.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	total, err := service.TotalUnread(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.TotalUnreadResponse{TotalUnread: total})
}

// GetMessages returns one page of a conversation's messages
func GetMessages(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "conversations_handler.GetMessages")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	ctx, service, err := ectoinject.GetContext[*conversations.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	messages, err := service.GetMessages(ctx, c.Param("id"), userID, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messages)
}

// SendMessage appends a message to a conversation
func SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "conversations_handler.SendMessage")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*conversations.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	message, err := service.SendMessage(ctx, c.Param("id"), userID, req.ReceiverID, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, message)
}

// MarkAsRead stamps read receipts and resets the caller's unread counter
func MarkAsRead(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "conversations_handler.MarkAsRead")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	ctx, service, err := ectoinject.GetContext[*conversations.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := service.MarkAsRead(ctx, c.Param("id"), userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
