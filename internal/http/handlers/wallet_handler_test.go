package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWalletHandler_GetBalance_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{wallets: nil}
	r.GET("/wallets/balance", handler.GetBalance)

	req, _ := http.NewRequest("GET", "/wallets/balance", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletHandler_ListTransactions_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{wallets: nil}
	r.GET("/wallets/transactions", handler.ListTransactions)

	req, _ := http.NewRequest("GET", "/wallets/transactions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletHandler_ReconcileUser_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{wallets: nil}
	r.GET("/admin/wallets/:id/reconciliation", handler.ReconcileUser)

	req, _ := http.NewRequest("GET", "/admin/wallets/not-a-uuid/reconciliation", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletHandler_EnsureWallet_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{wallets: nil}
	r.POST("/wallets", handler.EnsureWallet)

	req, _ := http.NewRequest("POST", "/wallets", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
