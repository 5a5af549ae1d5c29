package orders

import "testing"

func TestOrder_FillTransitionsStatus(t *testing.T) {
	o := New("o-1", "X", SideBuy, OrderTypeLimit, 100, 10, 0)

	o.Fill(4)
	if o.Status != StatusPartiallyFilled {
		t.Fatalf("expected PARTIALLY_FILLED after a partial fill, got %s", o.Status)
	}
	if o.RemainingQuantity != 6 || o.FilledQuantity != 4 {
		t.Errorf("expected remaining=6 filled=4, got remaining=%d filled=%d", o.RemainingQuantity, o.FilledQuantity)
	}

	o.Fill(6)
	if o.Status != StatusFilled {
		t.Fatalf("expected FILLED once remaining hits zero, got %s", o.Status)
	}
	if !o.IsFilled() {
		t.Errorf("expected IsFilled true")
	}
}

func TestSide_Opposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Errorf("expected BUY's opposite to be SELL")
	}
	if SideSell.Opposite() != SideBuy {
		t.Errorf("expected SELL's opposite to be BUY")
	}
}

func TestParseSide(t *testing.T) {
	if s, ok := ParseSide("BUY"); !ok || s != SideBuy {
		t.Errorf("expected BUY to parse, got %v ok=%v", s, ok)
	}
	if _, ok := ParseSide("sideways"); ok {
		t.Errorf("expected an invalid side to fail to parse")
	}
}

func TestParseOrderType_EmptyDefaultsToLimit(t *testing.T) {
	typ, ok := ParseOrderType("")
	if !ok || typ != OrderTypeLimit {
		t.Errorf("expected an empty type to default to LIMIT, got %v ok=%v", typ, ok)
	}
}

func TestParseOrderType_RejectsUnknown(t *testing.T) {
	if _, ok := ParseOrderType("IOC"); ok {
		t.Errorf("expected IOC to be rejected: only LIMIT/MARKET are supported")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		15025: "$150.25",
		100:   "$1.00",
		5:     "$0.05",
	}
	for cents, want := range cases {
		if got := FormatPrice(cents); got != want {
			t.Errorf("FormatPrice(%d) = %q, want %q", cents, got, want)
		}
	}
}
