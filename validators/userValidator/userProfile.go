package userValidator

import (
	"strings"

	"flexvest/middleware"
	"flexvest/validators"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest carries optional fields; nil leaves a field unchanged.
type UpdateProfileRequest struct {
	Phone              *string `json:"phone" validate:"omitempty,e164"`
	WalletAddress      *string `json:"walletAddress" validate:"omitempty,min=26,max=64,alphanum"`
	EmailNotifications *bool   `json:"emailNotifications"`
	PushNotifications  *bool   `json:"pushNotifications"`
}

func (r *UpdateProfileRequest) Empty() bool {
	return r.Phone == nil && r.WalletAddress == nil && r.EmailNotifications == nil && r.PushNotifications == nil
}

// UpdateProfile validator middleware
func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProfileRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		for _, p := range []**string{&reqData.Phone, &reqData.WalletAddress} {
			if *p != nil {
				v := strings.TrimSpace(**p)
				*p = &v
			}
		}

		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		if reqData.Empty() {
			return middleware.ValidationErrorResponse(c, map[string]string{"request": "nothing to update"})
		}

		c.Locals("validatedProfile", reqData)
		return c.Next()
	}
}
