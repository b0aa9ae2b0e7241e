// Stub gateway backend for local development. It serves the full REST and
// event stream surface from memory and auto settles every invoice after a
// short delay, so the terminal can be demoed without a wallet.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"cipherpay.onion/checkout/billing"
	"cipherpay.onion/checkout/client"
	"cipherpay.onion/checkout/client/mock"
	"cipherpay.onion/checkout/invoice"
	"cipherpay.onion/checkout/money"
)

var app struct {
	listen  string
	autopay time.Duration
	pastDue bool
}

func init() {
	flagset := flag.NewFlagSet("stubgateway", flag.ExitOnError)
	flagset.StringVar(&app.listen, "listen", "127.0.0.1:8080", "listen address")
	flagset.DurationVar(&app.autopay, "autopay", 10*time.Second, "auto pay invoices after this delay, 0 disables")
	flagset.BoolVar(&app.pastDue, "past-due", false, "serve a past due billing summary")
	err := flagset.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	backend := mock.New()
	seed(backend)

	if app.autopay > 0 {
		go autopay(backend)
	}

	log.Println("stub gateway listening on", app.listen)
	err := http.ListenAndServe(app.listen, backend.Handler())
	if err != nil {
		log.Fatal(err)
	}
}

func seed(backend *mock.Server) {
	backend.AddProduct(client.Product{Id: "espresso", Name: "Espresso", PriceEur: 5, Currency: money.CurrencyEUR})
	backend.AddProduct(client.Product{Id: "croissant", Name: "Croissant", PriceEur: 3, Currency: money.CurrencyEUR})
	backend.AddProduct(client.Product{
		Id:       "hoodie",
		Name:     "Hoodie",
		PriceEur: 65,
		Currency: money.CurrencyEUR,
		Variants: []string{"S", "M", "L"},
	})

	summary := billing.Summary{
		FeeEnabled: true,
		FeeRate:    0.01,
		TrustTier:  billing.TierStandard,
		Status:     billing.StatusActive,
	}
	summary.TotalFeesZec.FromZatoshis(32_500_000)
	summary.AutoCollectedZec.FromZatoshis(32_500_000)
	summary.OutstandingZec.FromZatoshis(0)
	if app.pastDue {
		summary.Status = billing.StatusPastDue
		summary.AutoCollectedZec.FromZatoshis(12_500_000)
		summary.OutstandingZec.FromZatoshis(20_000_000)
	}
	backend.SetBilling(summary)
}

// autopay walks pending invoices and scripts a matching payment, then a
// confirmation one interval later.
func autopay(backend *mock.Server) {
	paid := make(map[string]time.Time)
	for range time.Tick(app.autopay) {
		for _, inv := range backend.Invoices() {
			switch inv.Status {
			case invoice.StatusPending, invoice.StatusUnderpaid:
				err := backend.Pay(inv.Id, inv.RemainingZatoshis(), "stub-"+inv.Id[:8])
				if err != nil {
					log.Println("failed to pay invoice:", err)
					continue
				}
				paid[inv.Id] = time.Now()
				log.Println("paid invoice", inv.Id)
			case invoice.StatusDetected:
				if time.Since(paid[inv.Id]) < app.autopay {
					continue
				}
				err := backend.Confirm(inv.Id)
				if err != nil {
					log.Println("failed to confirm invoice:", err)
					continue
				}
				delete(paid, inv.Id)
				log.Println("confirmed invoice", inv.Id)
			}
		}
	}
}
