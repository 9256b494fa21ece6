package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dulytrade/portal-api/internal/api/metrics"
	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/core/ports"
	"github.com/dulytrade/portal-api/internal/infrastructure/session"
)

// AuthHandler handles the credential endpoints: login on both portals,
// logout, signup, registration, and terms acceptance.
type AuthHandler struct {
	auth   ports.AuthService
	cookie *session.Cookie
}

func NewAuthHandler(auth ports.AuthService, cookie *session.Cookie) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	UserData map[string]any `json:"userData"`
}

type registerRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6"`
	CompanyName   string `json:"companyName" validate:"required"`
	ContactPerson string `json:"contactPerson" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
}

type termsRequest struct {
	TermsAccepted     bool   `json:"termsAccepted"`
	PrivacyAccepted   bool   `json:"privacyAccepted"`
	MarketingAccepted bool   `json:"marketingAccepted"`
	ReturnURL         string `json:"returnUrl"`
}

type accountResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"emailConfirmed"`
}

type redirectResponse struct {
	RedirectTo string `json:"redirectTo"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// Login handles POST /api/auth/login — the customer portal.
//
// @Summary      Customer login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  ports.LoginResult
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	return h.login(c, domain.PortalCustomer)
}

// StaffLogin handles POST /api/auth/staff/login — staff roles only.
//
// @Summary      Staff login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  ports.LoginResult
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/auth/staff/login [post]
func (h *AuthHandler) StaffLogin(c echo.Context) error {
	return h.login(c, domain.PortalStaff)
}

func (h *AuthHandler) login(c echo.Context, portal domain.Portal) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.auth.Login(c.Request().Context(), ports.LoginInput{
		Portal:   portal,
		Email:    req.Email,
		Password: req.Password,
		Meta:     requestMeta(c),
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(string(portal), loginResultLabel(err)).Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues(string(portal), "success").Inc()
	h.cookie.Write(c, res.Token, res.ExpiresAt)
	return c.JSON(http.StatusOK, res)
}

// Logout handles POST /api/auth/logout. It always reports success: the
// client ends up logged out whether or not a session existed.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  successResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := h.cookie.Read(c)
	if err := h.auth.Logout(c.Request().Context(), token, requestMeta(c)); err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// Signup handles POST /api/auth/signup — admin-created unconfirmed accounts.
//
// @Summary      Create an account (admin)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      409   {object}  map[string]string
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.auth.Signup(c.Request().Context(), ports.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		UserData: req.UserData,
		Meta:     requestMeta(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// Register handles POST /api/auth/register — self-service customer sign-up.
//
// @Summary      Register a customer account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      201   {object}  accountResponse
// @Failure      409   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Meta:          requestMeta(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// AcceptTerms handles POST /api/auth/accept-terms — the first-login consent
// gate. Requires a live session cookie.
//
// @Summary      Accept terms of service
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      termsRequest  true  "Consent decision"
// @Success      200   {object}  redirectResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/accept-terms [post]
func (h *AuthHandler) AcceptTerms(c echo.Context) error {
	var req termsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	redirectTo, err := h.auth.AcceptTerms(c.Request().Context(), ports.TermsInput{
		Token:             h.cookie.Read(c),
		TermsAccepted:     req.TermsAccepted,
		PrivacyAccepted:   req.PrivacyAccepted,
		MarketingAccepted: req.MarketingAccepted,
		ReturnURL:         req.ReturnURL,
		Meta:              requestMeta(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, redirectResponse{RedirectTo: redirectTo})
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Email:          a.Email,
		EmailConfirmed: a.EmailConfirmed,
	}
}

// loginResultLabel buckets a login error for the attempts counter.
func loginResultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrWrongPortal):
		return "wrong_portal"
	case errors.Is(err, domain.ErrPendingApproval):
		return "pending"
	case errors.Is(err, domain.ErrRejected):
		return "rejected"
	default:
		return "upstream_error"
	}
}
