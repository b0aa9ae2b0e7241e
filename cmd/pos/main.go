// Point of sale terminal: tap products into a cart, check out, watch the
// invoice live until the payment is detected.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cipherpay.onion/checkout/billing"
	"cipherpay.onion/checkout/cart"
	"cipherpay.onion/checkout/checkout"
	"cipherpay.onion/checkout/client"
	"cipherpay.onion/checkout/countdown"
	"cipherpay.onion/checkout/invoice"
	"cipherpay.onion/checkout/money"
	"cipherpay.onion/checkout/receipts"
	"cipherpay.onion/checkout/utils"
	"gopkg.in/yaml.v3"
)

var app struct {
	config string
}

func init() {
	flagset := flag.NewFlagSet("pos", flag.ExitOnError)
	flagset.StringVar(&app.config, "config", "config.yaml", "YAML configuration")
	err := flagset.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

// catalog adapts the merchant's product list to the cart's resolver.
type catalog struct {
	products []client.Product
}

func (c *catalog) Product(id string) (product cart.Product, ok bool) {
	for _, entry := range c.products {
		if entry.Id == id || entry.Slug == id {
			return cart.Product{
				Id:       entry.Id,
				Name:     entry.Name,
				Price:    entry.PriceEur,
				Currency: entry.Currency,
			}, true
		}
	}
	return product, false
}

func main() {
	configContents, err := os.ReadFile(app.config)
	if err != nil {
		log.Fatal(err)
	}

	var cfg Config
	err = yaml.Unmarshal(configContents, &cfg)
	if err != nil {
		log.Fatal(err)
	}

	gateway, store, db, err := cfg.Compile()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := utils.NewContext()
	products, err := gateway.Products(ctx)
	cancel()
	if err != nil {
		log.Fatal(err)
	}

	resolver := &catalog{products: products}
	basket := cart.New(resolver)

	showBilling(gateway)

	fmt.Println("Commands: add <id>, remove <id>, list, checkout, receipts, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "add":
			if len(fields) < 2 {
				fmt.Println("usage: add <product-id>")
				continue
			}
			err = basket.Add(fields[1])
			if err != nil {
				fmt.Println("ERROR:", err)
				continue
			}
			fmt.Println(basket.Summary())
		case "remove":
			if len(fields) < 2 {
				fmt.Println("usage: remove <product-id>")
				continue
			}
			basket.Remove(fields[1])
			fmt.Println(basket.Summary())
		case "list":
			for _, product := range products {
				fmt.Printf("%s\t%s\t%s\n", product.Id, product.Name, money.FormatFiat(product.PriceEur, product.Currency))
			}
			if total := basket.Total(); total > 0 {
				fmt.Println("CART:", basket.Summary(), "=", money.FormatFiat(total, basket.Currency()))
			}
		case "checkout":
			if basket.MixedCurrency() {
				fmt.Println("BLOCKED: cart mixes currencies, remove the odd items first")
				continue
			}
			if !basket.CanCheckout() {
				fmt.Println("BLOCKED: cart is empty")
				continue
			}
			err = runCheckout(gateway, store, basket)
			if err != nil {
				// Local state unchanged, the cashier may retry
				fmt.Println("ERROR:", err)
				continue
			}
			basket.Clear()
		case "receipts":
			invoices, err := store.List()
			if err != nil {
				fmt.Println("ERROR:", err)
				continue
			}
			for _, inv := range invoices {
				fmt.Printf("%s\t%s\t%s\t%s\n", inv.MemoCode, inv.Status, inv.PrimaryPrice(), inv.ProductName)
			}
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func showBilling(gateway *client.Client) {
	ctx, cancel := utils.NewContext()
	defer cancel()

	summary, err := gateway.Billing(ctx)
	if err != nil {
		log.Println("failed to fetch billing summary:", err)
		return
	}

	switch summary.Banner() {
	case billing.BannerSuspended:
		fmt.Println("!! ACCOUNT SUSPENDED: settle the outstanding fees before taking new payments")
	case billing.BannerPastDue:
		fmt.Println("! Fees past due, settle before the grace period ends")
	}
}

// runCheckout freezes the cart into an invoice and blocks until the payment
// is detected, the invoice reaches a terminal state, or the countdown runs
// out. The receipt store tracks every state the session sees.
func runCheckout(gateway *client.Client, store *receipts.Store, basket *cart.Cart) (err error) {
	ctx, cancel := utils.NewContext()
	created, err := gateway.CreateInvoice(ctx, client.CreateInvoiceRequest{
		ProductName: basket.Summary(),
		PriceEur:    basket.Total(),
		Currency:    basket.Currency(),
	})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	fmt.Println("MEMO:", created.MemoCode)
	fmt.Println("PAY: ", created.ZcashUri)
	fmt.Printf("DUE:  %s ZEC (%s)\n",
		created.PriceZec.String(),
		money.FormatFiat(created.PriceEur, basket.Currency()))

	sessionCtx, sessionCancel := context.WithCancel(context.Background())
	defer sessionCancel()

	settled := make(chan invoice.Invoice, 1)
	session, err := checkout.Open(sessionCtx, checkout.Config{
		Client: gateway,
		Store:  store,
		OnChange: func(inv invoice.Invoice) {
			fmt.Println("\nSTATUS:", inv.Status)
			if inv.IsUnderpaid() {
				fmt.Printf("RECEIVED LESS THAN DUE, REMAINING: %.8f ZEC\n", inv.RemainingZec())
			}
			if inv.ShowReceipt() || inv.Status.Terminal() {
				select {
				case settled <- inv:
				default:
				}
			}
		},
	}, created.InvoiceId)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	expired := make(chan struct{})
	timer := countdown.New(countdown.Config{
		ExpiresAt: created.ExpiresAt,
		OnTick: func(text string, isExpired bool) {
			fmt.Printf("\r%-8s", text)
			if isExpired {
				close(expired)
			}
		},
	})
	timer.Start()
	defer timer.Stop()

	select {
	case inv := <-settled:
		fmt.Println()
		printReceipt(inv)
	case <-expired:
		fmt.Println("\nNo payment detected before expiry")
	}
	return nil
}

func printReceipt(inv invoice.Invoice) {
	fmt.Println("================================")
	fmt.Println(" ", inv.ProductName)
	fmt.Println("  MEMO  ", inv.MemoCode)
	fmt.Println("  TOTAL ", inv.PrimaryPrice())
	fmt.Printf("  PAID   %.8f ZEC\n", money.ToZec(inv.ReceivedZatoshis))
	if inv.DetectedTxid != "" {
		fmt.Println("  TXID  ", inv.DetectedTxid)
	}
	if inv.IsOverpaid() {
		fmt.Printf("  OVERPAID BY %.8f ZEC\n", money.ToZec(inv.ReceivedZatoshis-inv.PriceZatoshis))
	}
	fmt.Println("  STATUS", strings.ToUpper(string(inv.Status)))
	fmt.Println("================================")
}
