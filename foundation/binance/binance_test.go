package binance_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ardanlabs/chainlogger/foundation/binance"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" || r.URL.Query().Get("symbol") != "BTCUSDT" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"64123.45000000"}`))
	}))
	defer srv.Close()

	t.Log("Given the need to read the latest price.")
	{
		t.Logf("\tTest 0:\tWhen the exchange answers.")
		{
			c := binance.New(binance.Config{BaseURL: srv.URL, Symbol: "BTCUSDT"})

			price, err := c.Price(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read the price: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to read the price.", success)

			if price.String() != "64123.45" {
				t.Fatalf("\t%s\tTest 0:\tShould get the right price: %s", failed, price)
			}
			t.Logf("\t%s\tTest 0:\tShould get the right price.", success)
		}
	}
}

func TestKlinesInterval(t *testing.T) {
	var interval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		interval = r.URL.Query().Get("interval")
		w.Write([]byte(`[[1,"2","3","4","5"]]`))
	}))
	defer srv.Close()

	t.Log("Given the need to proxy candlestick data.")
	{
		c := binance.New(binance.Config{BaseURL: srv.URL})

		tt := map[string]string{"5m": "5m", "1w": "1w", "2d": "1h", "": "1h"}
		testID := 0
		for timeframe, exp := range tt {
			t.Logf("\tTest %d:\tWhen asking for timeframe %q.", testID, timeframe)
			{
				if _, err := c.Klines(context.Background(), timeframe, 100); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to get klines: %v", failed, testID, err)
				}
				if interval != exp {
					t.Fatalf("\t%s\tTest %d:\tShould request interval %s, got %s.", failed, testID, exp, interval)
				}
				t.Logf("\t%s\tTest %d:\tShould request interval %s.", success, testID, exp)
			}
			testID++
		}
	}
}

func TestUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"price":"1"}`))
	}))
	defer srv.Close()

	t.Log("Given the need to bound slow price feeds.")
	{
		t.Logf("\tTest 0:\tWhen the exchange is slower than the timeout.")
		{
			c := binance.New(binance.Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})

			_, err := c.Price(context.Background())
			if !errors.Is(err, binance.ErrUpstream) {
				t.Fatalf("\t%s\tTest 0:\tShould get an upstream error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get an upstream error.", success)
		}
	}
}
