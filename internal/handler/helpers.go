package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/middleware"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return nil, fmt.Errorf("invalid %s", key)
	}
	id := uint(parsed)
	return &id, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok && id > 0 {
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

// actorContext returns the request context carrying the authenticated operator.
func actorContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	if id := userIDFromContext(c); id > 0 {
		ctx = service.WithActor(ctx, service.Actor{ID: id, Role: userRoleFromContext(c)})
	}
	return ctx
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps pipeline errors onto HTTP statuses. Unexpected errors are logged
// and answered with fallback.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		var details interface{}
		if len(validation.Fields) > 0 {
			details = validation.Fields
		}
		return utils.Fail(c, fiber.StatusBadRequest, validation.Error(), details)
	}

	var transition *service.InvalidTransitionError
	switch {
	case errors.Is(err, service.ErrValidation):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExpired):
		return utils.SendError(c, fiber.StatusGone, err.Error())
	case errors.As(err, &transition):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, err.Error(), fiber.Map{"from": transition.From, "to": transition.To})
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStoreTimeout):
		requestLogger(logger, c).Error().Err(err).Msg("store timeout")
		return utils.SendError(c, fiber.StatusGatewayTimeout, "store timeout")
	case errors.Is(err, service.ErrGraderUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
