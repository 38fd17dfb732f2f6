package portal

import (
	"encoding/json"
	"errors"
	"mime"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/logger"
	"github.com/dmitrymomot/portalguard/core/response"
	"github.com/dmitrymomot/portalguard/core/validator"
	"github.com/dmitrymomot/portalguard/middleware"
)

// TokenResponse lets script-driven pages pick up the CSRF token and the
// CSP nonce of the current request.
type TokenResponse struct {
	CSRFToken string `json:"csrf_token"`
	Nonce     string `json:"nonce,omitempty"`
}

// TokenEndpoint returns the token the CSRF middleware issued or confirmed.
func (app *App) TokenEndpoint(ctx Context) handler.Response {
	token, ok := middleware.GetCSRFToken(ctx)
	if !ok {
		return response.Error(response.ErrInternalServerError)
	}
	nonce, _ := middleware.GetNonce(ctx)
	return response.JSON(TokenResponse{CSRFToken: token, Nonce: nonce})
}

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string `json:"name" sanitize:"text,max:100" validate:"required;max:100;no_script"`
	Email   string `json:"email" sanitize:"trim,lower" validate:"required;email"`
	Phone   string `json:"phone,omitempty" sanitize:"trim,no_control" validate:"max:32"`
	Message string `json:"message" sanitize:"text,max:2000" validate:"required;min:10;max:2000;no_script;no_handlers;no_js"`
}

type ContactResponse struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Sanitized bool   `json:"sanitized"`
}

// ContactEndpoint accepts the contact form as url-encoded, multipart or
// JSON. Form values arrive already cleaned by SanitizeInput; JSON bodies
// are cleaned here through the struct tags.
func (app *App) ContactEndpoint(ctx Context) handler.Response {
	r := ctx.Request()

	var req ContactRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return response.Error(response.ErrBadRequest.WithMessage("Invalid JSON body").WithError(err))
		}
	} else {
		req = ContactRequest{
			Name:    r.PostFormValue("name"),
			Email:   r.PostFormValue("email"),
			Phone:   r.PostFormValue("phone"),
			Message: r.PostFormValue("message"),
		}
	}

	violations, err := app.sanitizer.Struct(&req)
	if err != nil {
		return response.Error(response.ErrInternalServerError.WithError(err))
	}

	if err := validator.ValidateStruct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return response.Error(response.ErrUnprocessableEntity.WithDetails(map[string]any{
				"fields": verrs.Fields(),
			}))
		}
		return response.Error(response.ErrInternalServerError.WithError(err))
	}

	sanitized := len(violations) > 0 || len(middleware.GetInputViolations(ctx)) > 0
	if sanitized {
		requestID, _ := middleware.GetRequestID(ctx)
		app.logger.InfoContext(ctx, "contact form accepted after sanitization",
			logger.Component("contact"),
			logger.RequestID(requestID),
			logger.Count("fields", len(violations)))
	}

	return response.JSON(ContactResponse{
		Status:    "received",
		Name:      req.Name,
		Email:     req.Email,
		Sanitized: sanitized,
	})
}
