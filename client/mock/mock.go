// Package mock is an in process stand in for the gateway backend. It serves
// the same REST and event stream surface the real backend exposes, with
// scriptable payment progress, so the client side can be exercised without a
// chain scanner behind it.
package mock

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"cipherpay.onion/checkout/billing"
	"cipherpay.onion/checkout/client"
	"cipherpay.onion/checkout/invoice"
	"cipherpay.onion/checkout/money"
	"cipherpay.onion/checkout/random"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DefaultExpiry  = 30 * time.Minute
	memoCodeLength = 6
)

type Server struct {
	mu          sync.Mutex
	engine      *gin.Engine
	invoices    map[string]*invoice.Invoice
	subscribers map[string][]chan string
	products    []client.Product
	billing     billing.Summary
	rates       client.Rates
}

func New() (s *Server) {
	gin.SetMode(gin.ReleaseMode)

	s = &Server{
		engine:      gin.New(),
		invoices:    make(map[string]*invoice.Invoice),
		subscribers: make(map[string][]chan string),
		rates: client.Rates{
			ZecEur:    455.00,
			ZecUsd:    495.95,
			UpdatedAt: time.Now().UTC(),
		},
	}

	api := s.engine.Group("/api")
	api.GET("/invoices/:id", s.getInvoice)
	api.GET("/invoices/:id/stream", s.streamInvoice)
	api.POST("/invoices", s.createInvoice)
	api.POST("/checkout", s.checkout)
	api.POST("/invoices/:id/cancel", s.cancelInvoice)
	api.POST("/invoices/:id/refund", s.refundInvoice)
	api.PATCH("/invoices/:id/refund-address", s.saveRefundAddress)
	api.GET("/products", s.listProducts)
	api.GET("/products/:id/public", s.publicProduct)
	api.GET("/rates", s.getRates)
	api.GET("/merchants/me/billing", s.getBilling)
	api.POST("/merchants/me/billing/settle", s.settleBilling)
	return s
}

func (s *Server) Handler() (handler http.Handler) {
	return s.engine
}

// Seed installs an invoice directly, bypassing pricing.
func (s *Server) Seed(inv invoice.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.Id] = &inv
}

func (s *Server) AddProduct(product client.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, product)
}

func (s *Server) SetBilling(summary billing.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billing = summary
}

func (s *Server) SetRates(rates client.Rates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = rates
}

// Invoice returns a copy of the stored invoice, for assertions.
func (s *Server) Invoice(id string) (inv invoice.Invoice, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[id]
	if !ok {
		return inv, false
	}
	return *stored, true
}

// Invoices returns a copy of every stored invoice.
func (s *Server) Invoices() (invoices []invoice.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.invoices {
		invoices = append(invoices, *stored)
	}
	return invoices
}

// newInvoice prices and stores a fresh invoice the way the backend would:
// conversion happens here, once, and is frozen for the invoice's lifetime.
func (s *Server) newInvoice(productName string, priceEur float64, currency money.Currency) (inv *invoice.Invoice) {
	if currency == "" {
		currency = money.CurrencyEUR
	}
	priceZec := priceEur / s.rates.ZecEur
	priceUsd := priceZec * s.rates.ZecUsd
	address := "u1" + random.String(random.PseudoRand, random.CharsetAlphaNumeric, 40)

	now := time.Now().UTC()
	inv = &invoice.Invoice{
		Id:                uuid.New().String(),
		MemoCode:          random.String(random.PseudoRand, random.CharsetMemo, memoCodeLength),
		ProductName:       productName,
		PriceEur:          priceEur,
		PriceUsd:          &priceUsd,
		Currency:          currency,
		PriceZatoshis:     money.ToZatoshis(priceZec),
		ZecRateAtCreation: s.rates.ZecEur,
		Status:            invoice.StatusPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(DefaultExpiry),
		PaymentAddress:    address,
		ZcashUri:          fmt.Sprintf("zcash:%s?amount=%.8f", address, priceZec),
	}
	inv.PriceZec.FromZatoshis(inv.PriceZatoshis)
	s.invoices[inv.Id] = inv
	return inv
}

func createResponse(inv *invoice.Invoice) (resp client.CreateInvoiceResponse) {
	return client.CreateInvoiceResponse{
		InvoiceId:      inv.Id,
		MemoCode:       inv.MemoCode,
		PriceEur:       inv.PriceEur,
		PriceUsd:       inv.PriceUsd,
		PriceZec:       inv.PriceZec,
		PaymentAddress: inv.PaymentAddress,
		ZcashUri:       inv.ZcashUri,
		ExpiresAt:      inv.ExpiresAt,
	}
}

func (s *Server) getInvoice(ctx *gin.Context) {
	s.mu.Lock()
	inv, ok := s.invoices[ctx.Param("id")]
	if !ok {
		s.mu.Unlock()
		ctx.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	out := *inv
	s.mu.Unlock()
	ctx.JSON(http.StatusOK, &out)
}

func (s *Server) createInvoice(ctx *gin.Context) {
	var req client.CreateInvoiceRequest
	err := ctx.BindJSON(&req)
	if err != nil {
		return
	}
	if req.PriceEur <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}

	s.mu.Lock()
	inv := s.newInvoice(req.ProductName, req.PriceEur, req.Currency)
	resp := createResponse(inv)
	s.mu.Unlock()
	ctx.JSON(http.StatusCreated, &resp)
}

func (s *Server) checkout(ctx *gin.Context) {
	var req client.CheckoutRequest
	err := ctx.BindJSON(&req)
	if err != nil {
		return
	}

	s.mu.Lock()
	var product *client.Product
	for index := range s.products {
		if s.products[index].Id == req.ProductId {
			product = &s.products[index]
			break
		}
	}
	if product == nil {
		s.mu.Unlock()
		ctx.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	inv := s.newInvoice(product.Name, product.PriceEur, product.Currency)
	if req.RefundAddress != "" {
		inv.RefundAddress = req.RefundAddress
	}
	resp := createResponse(inv)
	s.mu.Unlock()
	ctx.JSON(http.StatusCreated, &resp)
}

func (s *Server) cancelInvoice(ctx *gin.Context) {
	err := s.transition(ctx.Param("id"), invoice.Delta{Status: invoice.StatusExpired})
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (s *Server) refundInvoice(ctx *gin.Context) {
	err := s.transition(ctx.Param("id"), invoice.Delta{Status: invoice.StatusRefunded})
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "refunded"})
}

func (s *Server) saveRefundAddress(ctx *gin.Context) {
	var req struct {
		RefundAddress string `json:"refund_address"`
	}
	err := ctx.BindJSON(&req)
	if err != nil {
		return
	}
	if err := invoice.ValidateAddress(req.RefundAddress); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[ctx.Param("id")]
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	if !inv.RefundAddressMutable() {
		ctx.JSON(http.StatusConflict, gin.H{"error": invoice.ErrRefundNotOpen.Error()})
		return
	}
	inv.RefundAddress = req.RefundAddress
	ctx.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (s *Server) listProducts(ctx *gin.Context) {
	s.mu.Lock()
	products := append([]client.Product(nil), s.products...)
	s.mu.Unlock()
	ctx.JSON(http.StatusOK, products)
}

func (s *Server) publicProduct(ctx *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, product := range s.products {
		if product.Id == ctx.Param("id") {
			ctx.JSON(http.StatusOK, &product)
			return
		}
	}
	ctx.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
}

func (s *Server) getRates(ctx *gin.Context) {
	s.mu.Lock()
	rates := s.rates
	s.mu.Unlock()
	ctx.JSON(http.StatusOK, &rates)
}

func (s *Server) getBilling(ctx *gin.Context) {
	s.mu.Lock()
	summary := s.billing
	s.mu.Unlock()
	ctx.JSON(http.StatusOK, &summary)
}

func (s *Server) settleBilling(ctx *gin.Context) {
	s.mu.Lock()
	outstanding := s.billing.OutstandingZec.Zatoshis()
	if outstanding == 0 {
		s.mu.Unlock()
		ctx.JSON(http.StatusConflict, gin.H{"error": "nothing outstanding"})
		return
	}
	inv := s.newInvoice("CipherPay fees", money.ToZec(outstanding)*s.rates.ZecEur, money.CurrencyEUR)
	resp := client.SettleResponse{
		InvoiceId:      inv.Id,
		OutstandingZec: s.billing.OutstandingZec,
	}
	s.mu.Unlock()
	ctx.JSON(http.StatusCreated, &resp)
}
