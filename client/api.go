package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cipherpay.onion/checkout/billing"
	"cipherpay.onion/checkout/invoice"
	"cipherpay.onion/checkout/money"
)

type CreateInvoiceRequest struct {
	ProductName string         `json:"product_name,omitempty"`
	PriceEur    float64        `json:"price_eur"`
	Currency    money.Currency `json:"currency,omitempty"`
}

type CheckoutRequest struct {
	ProductId     string `json:"product_id"`
	Variant       string `json:"variant,omitempty"`
	RefundAddress string `json:"refund_address,omitempty"`
}

type CreateInvoiceResponse struct {
	InvoiceId      string        `json:"invoice_id"`
	MemoCode       string        `json:"memo_code"`
	PriceEur       float64       `json:"price_eur"`
	PriceUsd       *float64      `json:"price_usd,omitempty"`
	PriceZec       money.Decimal `json:"price_zec"`
	PaymentAddress string        `json:"payment_address"`
	ZcashUri       string        `json:"zcash_uri"`
	ExpiresAt      time.Time     `json:"expires_at"`
}

type Product struct {
	Id          string         `json:"id"`
	Slug        string         `json:"slug,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	PriceEur    float64        `json:"price_eur"`
	Currency    money.Currency `json:"currency"`
	Variants    []string       `json:"variants,omitempty"`
}

type Rates struct {
	ZecEur    float64   `json:"zec_eur"`
	ZecUsd    float64   `json:"zec_usd"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SettleResponse struct {
	InvoiceId      string        `json:"invoice_id"`
	OutstandingZec money.Decimal `json:"outstanding_zec"`
}

// Invoice fetches a full snapshot.
func (c *Client) Invoice(ctx context.Context, id string) (inv invoice.Invoice, err error) {
	err = c.do(ctx, http.MethodGet, "/api/invoices/"+id, nil, &inv)
	if err != nil {
		return inv, fmt.Errorf("failed to fetch invoice: %w", err)
	}
	return inv, nil
}

// CreateInvoice asks the backend for a fresh invoice. Pricing is computed and
// frozen server side at this moment.
func (c *Client) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (resp CreateInvoiceResponse, err error) {
	err = c.do(ctx, http.MethodPost, "/api/invoices", &req, &resp)
	if err != nil {
		return resp, fmt.Errorf("failed to create invoice: %w", err)
	}
	return resp, nil
}

// Checkout creates an invoice from a public product (buyer driven flow).
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (resp CreateInvoiceResponse, err error) {
	if req.RefundAddress != "" {
		err = invoice.ValidateAddress(req.RefundAddress)
		if err != nil {
			return resp, fmt.Errorf("refund address: %w", err)
		}
	}
	err = c.do(ctx, http.MethodPost, "/api/checkout", &req, &resp)
	if err != nil {
		return resp, fmt.Errorf("failed to checkout: %w", err)
	}
	return resp, nil
}

func (c *Client) Cancel(ctx context.Context, id string) (err error) {
	err = c.do(ctx, http.MethodPost, "/api/invoices/"+id+"/cancel", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to cancel invoice: %w", err)
	}
	return nil
}

func (c *Client) Refund(ctx context.Context, id string) (err error) {
	err = c.do(ctx, http.MethodPost, "/api/invoices/"+id+"/refund", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to refund invoice: %w", err)
	}
	return nil
}

// SaveRefundAddress validates the address locally before it ever reaches the
// network; an invalid one is a validation error, never a request.
func (c *Client) SaveRefundAddress(ctx context.Context, id, address string) (err error) {
	err = invoice.ValidateAddress(address)
	if err != nil {
		return err
	}
	payload := map[string]string{"refund_address": address}
	err = c.do(ctx, http.MethodPatch, "/api/invoices/"+id+"/refund-address", payload, nil)
	if err != nil {
		return fmt.Errorf("failed to save refund address: %w", err)
	}
	return nil
}

// PublicProduct fetches the buyer facing product view.
func (c *Client) PublicProduct(ctx context.Context, id string) (product Product, err error) {
	err = c.do(ctx, http.MethodGet, "/api/products/"+id+"/public", nil, &product)
	if err != nil {
		return product, fmt.Errorf("failed to fetch product: %w", err)
	}
	return product, nil
}

// Products lists the merchant's own catalog.
func (c *Client) Products(ctx context.Context) (products []Product, err error) {
	err = c.do(ctx, http.MethodGet, "/api/products", nil, &products)
	if err != nil {
		return products, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Rates returns the current exchange rate snapshot, for display only.
func (c *Client) Rates(ctx context.Context) (rates Rates, err error) {
	err = c.do(ctx, http.MethodGet, "/api/rates", nil, &rates)
	if err != nil {
		return rates, fmt.Errorf("failed to fetch rates: %w", err)
	}
	return rates, nil
}

// Billing fetches the merchant's fee account snapshot.
func (c *Client) Billing(ctx context.Context) (summary billing.Summary, err error) {
	err = c.do(ctx, http.MethodGet, "/api/merchants/me/billing", nil, &summary)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch billing summary: %w", err)
	}
	return summary, nil
}

// SettleBilling requests a settlement invoice for the outstanding balance.
// The returned invoice id feeds straight into the regular checkout flow.
func (c *Client) SettleBilling(ctx context.Context) (resp SettleResponse, err error) {
	err = c.do(ctx, http.MethodPost, "/api/merchants/me/billing/settle", nil, &resp)
	if err != nil {
		return resp, fmt.Errorf("failed to settle billing: %w", err)
	}
	return resp, nil
}
