package main

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/crossing"
)

type Wallet struct {
	Shares float64
	Cash   float64
}

func (w *Wallet) BuyAll(price float64) {
	w.Shares += w.Cash / price
	w.Cash = 0
}

func (w *Wallet) SellAll(price float64) {
	w.Cash += w.Shares * price
	w.Shares = 0
}

// Value of the wallet at price.
func (w Wallet) Value(price float64) float64 {
	return w.Cash + w.Shares*price
}

type Result struct {
	Symbol    string
	Wallet    Wallet
	LastPrice float64
	Trades    int
}

// Simulate replays signals, oldest first, against one wallet per symbol starting with cash.
func Simulate(signals []shared.TradeSignal, cash float64) []Result {
	bySymbol := make(map[string]*Result)
	for _, v := range signals {
		r, ok := bySymbol[v.Symbol]
		if !ok {
			r = &Result{Symbol: v.Symbol, Wallet: Wallet{Cash: cash}}
			bySymbol[v.Symbol] = r
		}
		if !(v.Price > 0) {
			continue
		}

		log.Debugf("Time: %v Symbol: %s Price: %v Action: %v Old Wallet: %+v", v.TimeStamp, v.Symbol, v.Price, v.Signal, r.Wallet)
		switch v.Signal {
		case crossing.Buy.String():
			if r.Wallet.Cash > 0 {
				r.Wallet.BuyAll(v.Price)
				r.Trades++
			}
		case crossing.Sell.String():
			if r.Wallet.Shares > 0 {
				r.Wallet.SellAll(v.Price)
				r.Trades++
			}
		}
		r.LastPrice = v.Price
		log.Debugf("New Wallet: %+v", r.Wallet)
	}

	results := make([]Result, 0, len(bySymbol))
	for _, r := range bySymbol {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
	return results
}
