package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
)

func TestNewTelegramNotifier_Unconfigured(t *testing.T) {
	assert.Nil(t, NewTelegramNotifier("", "", "42", nil))
	assert.Nil(t, NewTelegramNotifier("", "token", " ", nil))

	// A nil notifier is safe to call.
	var n *TelegramNotifier
	n.OrderCreated(context.Background(), &models.Order{Number: "A"})
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botsecret/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL+"/", "secret", "-100", srv.Client())
	require.NotNil(t, n)
	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, "-100", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, true, got["disable_web_page_preview"])
}

func TestTelegramNotifier_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "secret", "-100", srv.Client())
	err := n.Send(context.Background(), "hello")
	assert.ErrorContains(t, err, "chat not found")

	// Notification failures are swallowed.
	n.OrderStatusChanged(context.Background(), &models.Order{Number: "A", Status: models.OrderStatusPaid}, models.OrderStatusNew)
}

func TestFormatNewOrder(t *testing.T) {
	text := formatNewOrder(&models.Order{
		Number:          "01HX",
		OrderType:       models.OrderTypeWholesale,
		DiscountPercent: decimal.NewFromInt(10),
		CustomerName:    "Иван",
		CustomerPhone:   "+79001234567",
		DeliveryMethod:  "cdek",
		DeliveryAddress: "Москва",
		PaymentMethod:   models.PaymentMethodCash,
		RetailTotal:     decimal.NewFromInt(9000),
		Economy:         decimal.NewFromInt(900),
		Total:           decimal.NewFromInt(8100),
		Lines: []models.OrderLine{{
			ProductName: "Футболка", SelectedColor: "Красный", SelectedSize: "XXL",
			Quantity: 20, LineTotal: decimal.NewFromInt(8100),
		}},
	})
	assert.Contains(t, text, "Новый заказ 01HX")
	assert.Contains(t, text, "опт (скидка 10%)")
	assert.Contains(t, text, "Футболка (Красный XXL) × 20")
	assert.Contains(t, text, "cdek, Москва")
	assert.Contains(t, text, "Экономия")
}
