package authController

import (
	"errors"
	"time"

	"flexvest/config"
	"flexvest/middleware"
	"flexvest/models"
	"flexvest/services/referral"
	"flexvest/utils/apperror"
	"flexvest/utils/logger"
	authValidator "flexvest/validators/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Controller struct {
	db        *gorm.DB
	referrals *referral.Service
	log       logrus.FieldLogger
}

func New(db *gorm.DB, referrals *referral.Service) *Controller {
	return &Controller{db: db, referrals: referrals, log: logger.Component(nil, "auth")}
}

// registerAttempts bounds retries when a fresh referral code loses a race
// to a concurrent signup.
const registerAttempts = 3

func (h *Controller) Register(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedUser").(*authValidator.RegisterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	ctx := c.UserContext()
	db := h.db.WithContext(ctx)

	// Check if email or phone already exists
	if conflict := h.identityConflict(db, reqData); conflict != "" {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, conflict, nil)
	}

	// Hash Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		h.log.WithError(err).Error("hashing password")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	// Create User with a fresh referral code
	var newUser models.User
	created := false
	for attempt := 0; attempt < registerAttempts && !created; attempt++ {
		code, err := h.referrals.NewUniqueCode(ctx, h.db)
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}

		newUser = models.User{
			Email:        reqData.Email,
			Phone:        reqData.Phone,
			Password:     string(hashedPassword),
			ReferralCode: code,
			Status:       models.StatusActive,
		}
		err = db.Create(&newUser).Error
		switch {
		case err == nil:
			created = true
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// Either the identity was taken meanwhile or the code was.
			if conflict := h.identityConflict(db, reqData); conflict != "" {
				return middleware.JsonResponse(c, fiber.StatusConflict, false, conflict, nil)
			}
			h.log.WithField("attempt", attempt+1).Warn("referral code taken at insert, retrying")
		default:
			h.log.WithError(err).Error("saving user")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
		}
	}
	if !created {
		return middleware.ErrorResponse(c, apperror.ErrCodeCollision)
	}

	// Apply the inviter's code, if any
	data := fiber.Map{"user": newUser}
	if reqData.ReferralCode != "" {
		if _, err := h.referrals.ApplyReferralCode(ctx, newUser.ID, reqData.ReferralCode); err != nil {
			h.log.WithField("user_id", newUser.ID).WithError(err).Warn("referral code at signup not applied")
			data["referralError"] = apperror.PublicMessage(err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", data)
}

// identityConflict returns the message for an email or phone that is
// already registered, or "" when both are free.
func (h *Controller) identityConflict(db *gorm.DB, req *authValidator.RegisterRequest) string {
	if err := db.Unscoped().Where("email = ?", req.Email).First(&models.User{}).Error; err == nil {
		return "Email is already registered!"
	}
	if req.Phone != nil {
		if err := db.Unscoped().Where("phone = ?", *req.Phone).First(&models.User{}).Error; err == nil {
			return "Phone number is already registered!"
		}
	}
	return ""
}

func (h *Controller) Login(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedUser").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := h.db.WithContext(c.UserContext())

	// Find user by email
	var user models.User
	if err := db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}
	// Compare password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}
	if !user.IsActive() {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Account is not active!", nil)
	}

	// Update last login
	now := time.Now().UTC()
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now).Error; err != nil {
		h.log.WithField("user_id", user.ID).WithError(err).Warn("saving last login time")
	}
	user.LastLogin = &now

	// Generate JWT Token
	token, err := middleware.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	h.log.WithFields(logrus.Fields{"user_id": user.ID, "ip": c.IP()}).Info("login")
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (h *Controller) Profile(c *fiber.Ctx) error {
	var user models.User
	err := h.db.WithContext(c.UserContext()).First(&user, middleware.UserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.ErrorResponse(c, apperror.NotFound("user"))
	}
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched.", user)
}
