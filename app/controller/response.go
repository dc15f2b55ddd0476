package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"optovik-store/logger"
	"optovik-store/service"
)

const maxJSONBody = 1 << 20

type actorKey struct{}

// WithActor stores the authenticated admin name in the request context
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the admin name set by the auth middleware
func Actor(r *http.Request) string {
	if v, ok := r.Context().Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return "admin"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("❌ Error encoding response: %v", err)
	}
}

// writeError maps service errors onto status codes
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Errorf("❌ %s: %v", op, err)
		http.Error(w, fmt.Sprintf("%s failed", op), status)
		return
	}
	logger.Log.Infof("⚠️  %s: %v", op, err)
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrCartLineNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrMediaNotFound),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateArticle),
		errors.Is(err, service.ErrCartCheckingOut),
		errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrTierCoverage):
		return http.StatusConflict
	case errors.Is(err, service.ErrBelowMinimumOrder),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrInvalidVariant),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrPaymentMethodDisabled),
		errors.Is(err, service.ErrDeliveryMethodInvalid),
		errors.Is(err, service.ErrInvalidSetting),
		errors.Is(err, service.ErrNoPriceColumns),
		errors.Is(err, service.ErrNoPayment),
		errors.Is(err, service.ErrUnsupportedImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrPaymentsDisabled),
		errors.Is(err, service.ErrDriveUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}
