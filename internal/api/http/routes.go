package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/carbon-intensity-aggregation/internal/intensity"
)

var validate = validator.New()

// RequestIDHeader carries a caller-supplied correlation id.
const RequestIDHeader = "X-Request-ID"

// BatchRunner executes a batch of observations; *intensity.Service satisfies it.
type BatchRunner interface {
	Execute(ctx context.Context, batch []intensity.Observation) ([]intensity.Record, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, runner BatchRunner, logger zerolog.Logger) {
	logger = logger.With().Str("component", "httpapi").Logger()

	v1 := app.Group("/api/v1")

	v1.Post("/carbon-intensity", func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDHeader, requestID)

		var req batchRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON object with an 'inputs' array")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		outputs, err := runner.Execute(c.UserContext(), req.Inputs)
		if err != nil {
			logger.Warn().Err(err).Str("request_id", requestID).Msg("batch failed")
			return fiber.NewError(statusFor(err), err.Error())
		}

		return c.JSON(batchResponse{Outputs: outputs})
	})
}

// batchRequest is the body of POST /api/v1/carbon-intensity.
type batchRequest struct {
	Inputs []intensity.Observation `json:"inputs" validate:"required,min=1"`
}

type batchResponse struct {
	Outputs []intensity.Record `json:"outputs"`
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch intensity.KindOf(err) {
	case intensity.InputValidationError:
		return fiber.StatusBadRequest
	case intensity.AuthorizationError:
		return fiber.StatusUnauthorized
	case intensity.APIRequestError:
		return fiber.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// NewApp builds the Fiber app with the shared codec and error handler.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          time.Minute,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler,
	})
}
