// Package cart accumulates per product quantities for the point of sale
// flow. Unit prices are resolved from the live catalog at read time, never
// cached at add time, so a price edit mid session is reflected immediately.
package cart

import (
	"errors"
	"fmt"
	"strings"

	"cipherpay.onion/checkout/money"
)

type Product struct {
	Id       string
	Name     string
	Price    float64
	Currency money.Currency
}

// Catalog resolves products against the current snapshot.
type Catalog interface {
	Product(id string) (product Product, ok bool)
}

type Line struct {
	ProductId string
	Quantity  uint64
}

// Cart keeps lines in insertion order. It is owned by exactly one view at a
// time and needs no locking.
type Cart struct {
	catalog Catalog
	lines   []Line
}

func New(catalog Catalog) (c *Cart) {
	return &Cart{catalog: catalog}
}

var ErrUnknownProduct = errors.New("product not in catalog")

// Add increments the product's quantity by one, inserting the line if absent.
func (c *Cart) Add(productId string) (err error) {
	if _, ok := c.catalog.Product(productId); !ok {
		return ErrUnknownProduct
	}
	for index := range c.lines {
		if c.lines[index].ProductId == productId {
			c.lines[index].Quantity++
			return nil
		}
	}
	c.lines = append(c.lines, Line{ProductId: productId, Quantity: 1})
	return nil
}

// Remove decrements the quantity; at zero the line is deleted entirely.
func (c *Cart) Remove(productId string) {
	for index := range c.lines {
		if c.lines[index].ProductId != productId {
			continue
		}
		c.lines[index].Quantity--
		if c.lines[index].Quantity == 0 {
			c.lines = append(c.lines[:index], c.lines[index+1:]...)
		}
		return
	}
}

func (c *Cart) Quantity(productId string) (quantity uint64) {
	for _, line := range c.lines {
		if line.ProductId == productId {
			return line.Quantity
		}
	}
	return 0
}

func (c *Cart) Lines() (lines []Line) {
	return append(lines, c.lines...)
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Total sums unit price times quantity over all lines, resolving prices from
// the current catalog snapshot.
func (c *Cart) Total() (total float64) {
	amounts := make([]float64, 0, len(c.lines))
	for _, line := range c.lines {
		product, ok := c.catalog.Product(line.ProductId)
		if !ok {
			continue
		}
		amounts = append(amounts, product.Price*float64(line.Quantity))
	}
	return money.Sum(amounts)
}

// MixedCurrency reports whether the cart spans more than one price currency.
// The gateway cannot create one invoice with two price currencies.
func (c *Cart) MixedCurrency() (mixed bool) {
	currencies := make(map[money.Currency]struct{})
	for _, line := range c.lines {
		product, ok := c.catalog.Product(line.ProductId)
		if !ok {
			continue
		}
		currencies[product.Currency] = struct{}{}
	}
	return len(currencies) > 1
}

// Currency is the display currency for the cart: authoritative when all lines
// agree, EUR otherwise. A mixed cart still blocks checkout.
func (c *Cart) Currency() (currency money.Currency) {
	currency = money.CurrencyEUR
	if c.MixedCurrency() {
		return currency
	}
	for _, line := range c.lines {
		product, ok := c.catalog.Product(line.ProductId)
		if !ok {
			continue
		}
		return product.Currency
	}
	return currency
}

// CanCheckout fails fast: a mixed or empty cart never reaches the network.
func (c *Cart) CanCheckout() (ok bool) {
	return c.Total() > 0 && !c.MixedCurrency()
}

// Summary joins the lines into the invoice's product name field, in cart
// insertion order, like "2x Espresso, 1x Croissant".
func (c *Cart) Summary() (summary string) {
	parts := make([]string, 0, len(c.lines))
	for _, line := range c.lines {
		product, ok := c.catalog.Product(line.ProductId)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%dx %s", line.Quantity, product.Name))
	}
	return strings.Join(parts, ", ")
}
