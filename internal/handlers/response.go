package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/middleware"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/orgdesk/room-scheduler/internal/utils"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RegisterValidators adds the hhmm and isodate tags to gin's binding validator.
// It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(fieldName)
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := scheduling.ParseTimeOfDay(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := scheduling.ParseDate(fl.Field().String())
		return err == nil
	})
}

// bindingFields converts validator errors into field messages keyed by JSON name
func bindingFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = tagMessage(fe)
	}
	return fields
}

// fieldName reports struct fields by their json or form name
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// respondBindError answers a request whose body or query failed to bind
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request",
		Code:    "VALIDATION_FAILED",
		Fields:  bindingFields(err),
	})
}

// respondError maps a service error onto the admin JSON error contract
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	switch services.KindOf(err) {
	case services.KindNotAuthenticated:
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
			Code:    "NOT_AUTHENTICATED",
		})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
			Code:    "NOT_FOUND",
		})
	case services.KindValidation:
		var verr *services.ValidationError
		errors.As(err, &verr)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Validation failed",
			Code:    "VALIDATION_FAILED",
			Fields:  verr.Fields,
		})
	case services.KindConflict:
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "slot_conflict",
			Message: err.Error(),
			Code:    "SLOT_CONFLICT",
		})
	case services.KindRateLimited:
		var rl *services.RateLimitError
		errors.As(err, &rl)
		if retry := time.Until(rl.RetryAfter); retry > 0 {
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		}
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:   "rate_limited",
			Message: rl.Message,
			Code:    "RATE_LIMITED",
		})
	default:
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"error":  err.Error(),
		}).Error("Request failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    "APPLICATION_FAILURE",
		})
	}
}

// parseIDParam reads a uuid path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + entity + " ID format",
			Code:    "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// adminActor builds the service actor from the authenticated request
func adminActor(c *gin.Context) services.Actor {
	ip, ua := utils.GetRealIP(c), utils.GetUserAgent(c)
	if userCtx, ok := middleware.GetUserContext(c); ok {
		return services.AdminActor(userCtx.UserID, ip, ua)
	}
	return services.PublicActor(ip, ua)
}

func publicActor(c *gin.Context) services.Actor {
	return services.PublicActor(utils.GetRealIP(c), utils.GetUserAgent(c))
}
