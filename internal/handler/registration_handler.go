package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/registration-etl/internal/models"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
	"github.com/noah-isme/registration-etl/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, fields map[string]string) (*models.RegistrationResult, error)
}

// RegistrationHandler exposes the single-student registration endpoint.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register godoc
// @Summary Register a student and optionally enroll them in a course
// @Description Field names follow the registration sheet columns; case, spaces, underscores and hyphens are ignored.
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Registration fields (firstName, lastName, email, dateOfBirth, year, phoneNumber, department, course, credits, enrollmentDate, grade)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /register-student [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	fields, err := decodeFields(c)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	result, err := h.service.Register(c.Request.Context(), fields)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch result.Outcome {
	case models.RegistrationCreated:
		response.Created(c, result)
	case models.RegistrationAlreadyRegistered:
		response.ErrorWithData(c, appErrors.ErrAlreadyRegistered, gin.H{"student_id": result.StudentID})
	default:
		response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, result.Errors))
	}
}

// decodeFields reads a flat JSON object, keeping numbers as typed by the client.
func decodeFields(c *gin.Context) (map[string]string, error) {
	var body map[string]interface{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case bool:
			fields[key] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("field %s must be a scalar", key)
		}
	}
	return fields, nil
}
