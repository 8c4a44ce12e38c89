package order_test

import (
	"testing"

	"github.com/ardanlabs/chainlogger/business/data/order"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestParse(t *testing.T) {
	allowed := map[string]bool{"index": true, "owner": true}
	def := order.NewBy("index", order.ASC)

	tt := []struct {
		field     string
		direction string
		exp       order.By
	}{
		{"owner", "desc", order.NewBy("owner", order.DESC)},
		{"index", "ASC", order.NewBy("index", order.ASC)},
		{"hash", "desc", order.NewBy("index", order.DESC)},
		{"owner", "sideways", order.NewBy("owner", order.ASC)},
		{"", "", order.NewBy("index", order.ASC)},
	}

	t.Log("Given the need to parse user supplied ordering.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen parsing %q %q.", testID, tst.field, tst.direction)
			{
				got := order.Parse(tst.field, tst.direction, allowed, def)
				if got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould get %+v, got %+v.", failed, testID, tst.exp, got)
				}
				t.Logf("\t%s\tTest %d:\tShould get %+v.", success, testID, tst.exp)
			}
		}
	}
}
