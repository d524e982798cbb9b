package authkit

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/amberlane/go-authkit/middleware/guard"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// sessionClaims is what the guard leaves in router locals for a request.
type sessionClaims interface {
	UserID() string
	Email() string
	SessionID() string
}

// HTTPController exposes the JSON auth API.
type HTTPController struct {
	Debug        bool
	Logger       Logger
	auth         *Auther
	cfg          Config
	ErrorHandler router.ErrorHandler
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Debug = debug
		return c
	}
}

func NewHTTPController(auther *Auther, cfg Config, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger: defLogger{},
		auth:   auther,
		cfg:    cfg,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.auth == nil {
		panic("Missing Auther in auth controller...")
	}

	c.ErrorHandler = c.handleError

	return c
}

// ProtectedRoute builds the guard middleware wired to this controller's
// token service and session store.
func (c *HTTPController) ProtectedRoute() router.MiddlewareFunc {
	tokens := c.auth.TokenService()
	return guard.New(guard.Config{
		TokenValidator:  guardTokenValidator{tokens: tokens},
		SessionVerifier: tokens,
		ContextKey:      c.cfg.GetContextKey(),
		TokenLookup:     c.cfg.GetTokenLookup(),
		AuthScheme:      c.cfg.GetAuthScheme(),
		ErrorHandler: func(ctx router.Context, err error) error {
			return c.ErrorHandler(ctx, translateGuardError(err))
		},
		ContextEnricher: func(ctx context.Context, claims guard.AccessClaims) context.Context {
			return WithCurrentUser(ctx, &CurrentUser{
				ID:        claims.UserID(),
				Email:     claims.Email(),
				SessionID: claims.SessionID(),
			})
		},
	})
}

// RegisterRoutes registers the public auth routes and the session-guarded
// account routes.
func (c *HTTPController) RegisterRoutes(app RouteRegistrar) {
	protected := c.ProtectedRoute()

	app.Post("/auth/signup", c.SignUp)
	app.Post("/auth/signin", c.SignIn)
	app.Post("/auth/social/:provider", c.SocialLogin)

	app.Post("/auth/logout", c.Logout, protected)
	app.Post("/auth/logout-all", c.LogoutAll, protected)
	app.Post("/auth/password", c.ChangePassword, protected)
	app.Get("/auth/sessions", c.ListSessions, protected)
}

// SignUpPayload is the registration request body.
type SignUpPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
	)
}

func (c *HTTPController) SignUp(ctx router.Context) error {
	payload := new(SignUpPayload)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("signup parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, errorBody("invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, validationBody(err))
	}

	if c.Debug {
		fmt.Println("======= AUTH SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==========================")
	}

	res, err := c.auth.SignUp(ctx.Context(), RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	}, c.sessionMetadata(ctx))
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, res)
}

// SignInPayload is the password login request body.
type SignInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (c *HTTPController) SignIn(ctx router.Context) error {
	payload := new(SignInPayload)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("signin parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, errorBody("invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, validationBody(err))
	}

	res, err := c.auth.SignIn(ctx.Context(), payload.Email, payload.Password, c.sessionMetadata(ctx))
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, res)
}

// SocialLogin dispatches on the provider route param. Each provider has
// its own payload shape.
func (c *HTTPController) SocialLogin(ctx router.Context) error {
	provider, ok := ParseSocialProvider(ctx.Param("provider"))
	if !ok {
		return ctx.JSON(router.StatusBadRequest, errorBody("unsupported provider"))
	}

	meta := c.sessionMetadata(ctx)

	var res *AuthResponse
	var err error

	switch provider {
	case SocialProviderGoogle:
		payload := new(GoogleLoginPayload)
		if err := ctx.Bind(payload); err != nil {
			return ctx.JSON(router.StatusBadRequest, errorBody("invalid request body"))
		}
		res, err = c.auth.GoogleLogin(ctx.Context(), *payload, meta)
	case SocialProviderTelegram:
		payload := new(TelegramLoginPayload)
		if err := ctx.Bind(payload); err != nil {
			return ctx.JSON(router.StatusBadRequest, errorBody("invalid request body"))
		}
		res, err = c.auth.TelegramLogin(ctx.Context(), *payload, meta)
	case SocialProviderWhatsApp:
		payload := new(WhatsAppLoginPayload)
		if err := ctx.Bind(payload); err != nil {
			return ctx.JSON(router.StatusBadRequest, errorBody("invalid request body"))
		}
		res, err = c.auth.WhatsAppLogin(ctx.Context(), *payload, meta)
	default:
		return ctx.JSON(router.StatusBadRequest, errorBody("unsupported provider"))
	}

	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, res)
}

func (c *HTTPController) Logout(ctx router.Context) error {
	user, ok := c.currentUser(ctx)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, errorBody("authentication required"))
	}

	if err := c.auth.Logout(ctx.Context(), user.ID, user.SessionID); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{"status": "logged_out"})
}

func (c *HTTPController) LogoutAll(ctx router.Context) error {
	user, ok := c.currentUser(ctx)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, errorBody("authentication required"))
	}

	revoked, err := c.auth.LogoutAll(ctx.Context(), user.ID, user.SessionID)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":  "logged_out_all",
		"revoked": revoked,
	})
}

// ChangePasswordPayload is the password change request body.
type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(10, 100)),
	)
}

func (c *HTTPController) ChangePassword(ctx router.Context) error {
	user, ok := c.currentUser(ctx)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, errorBody("authentication required"))
	}

	payload := new(ChangePasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, errorBody("invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, validationBody(err))
	}

	res, err := c.auth.ChangePassword(
		ctx.Context(),
		user.ID,
		user.SessionID,
		payload.CurrentPassword,
		payload.NewPassword,
		c.sessionMetadata(ctx),
	)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, res)
}

func (c *HTTPController) ListSessions(ctx router.Context) error {
	user, ok := c.currentUser(ctx)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, errorBody("authentication required"))
	}

	sessions, err := c.auth.ListSessions(ctx.Context(), user.ID, user.SessionID)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if c.Debug {
		fmt.Println("======= AUTH SESSIONS ======")
		fmt.Println(print.MaybePrettyJSON(sessions))
		fmt.Println("============================")
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

func (c *HTTPController) currentUser(ctx router.Context) (*CurrentUser, bool) {
	raw := ctx.Locals(c.cfg.GetContextKey())
	claims, ok := raw.(sessionClaims)
	if !ok {
		return nil, false
	}
	return &CurrentUser{
		ID:        claims.UserID(),
		Email:     claims.Email(),
		SessionID: claims.SessionID(),
	}, true
}

func (c *HTTPController) sessionMetadata(ctx router.Context) *SessionMetadata {
	return &SessionMetadata{
		DeviceInfo: ctx.GetString("User-Agent", "Unknown Device"),
		IPAddress:  ctx.GetString("X-Forwarded-For", ""),
	}
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		c.Logger.Error("unhandled controller error", "error", err)
		return ctx.JSON(router.StatusInternalServerError, errorBody("internal server error"))
	}

	c.Logger.Info(
		"Controller error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		// Callers get the same rejection whether the account is missing,
		// the password is wrong, or the token was tampered with.
		return ctx.JSON(router.StatusUnauthorized, errorBody("invalid credentials"))
	case errors.CategoryConflict:
		return ctx.JSON(router.StatusConflict, errorBody(richErr.Message))
	case errors.CategoryValidation, errors.CategoryBadInput:
		return ctx.JSON(router.StatusBadRequest, errorBody(richErr.Message))
	case errors.CategoryNotFound:
		return ctx.JSON(router.StatusNotFound, errorBody(richErr.Message))
	default:
		return ctx.JSON(router.StatusInternalServerError, errorBody("internal server error"))
	}
}

// translateGuardError maps the guard's sentinels onto the package error
// taxonomy so guarded routes share the controller's error surface. Store
// failures keep their internal category and never collapse to 401.
func translateGuardError(err error) error {
	switch {
	case errors.Is(err, guard.ErrTokenMissingOrMalformed):
		return ErrMissingCredential
	case errors.Is(err, guard.ErrWrongTokenKind):
		return ErrWrongTokenType
	case errors.Is(err, guard.ErrSessionRejected):
		return ErrSessionNotLive
	case errors.Is(err, guard.ErrSessionCheckFailed):
		return ErrStoreUnavailable
	default:
		return err
	}
}

// guardTokenValidator adapts TokenService.Validate to the guard interface.
type guardTokenValidator struct {
	tokens *TokenService
}

func (v guardTokenValidator) Validate(tokenString string) (guard.AccessClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// validationBody flattens ozzo validation errors into a field error map.
func validationBody(err error) map[string]any {
	fields := map[string]string{}
	if verr, ok := err.(validation.Errors); ok {
		for field, ferr := range verr {
			fields[field] = ferr.Error()
		}
	}
	return map[string]any{
		"error":      "validation failed",
		"validation": fields,
	}
}
