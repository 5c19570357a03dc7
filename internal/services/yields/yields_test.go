package yields

import (
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func TestDeriveFullLadder(t *testing.T) {
	y := Derive(&models.TreasuryYield{
		Date:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Year2:  fp(4.60),
		Year10: fp(4.20),
		Year30: fp(4.45),
	})
	if y.YieldCurveSlope == nil || *y.YieldCurveSlope != -0.40 {
		t.Fatalf("slope: want -0.40, got %v", y.YieldCurveSlope)
	}
	if y.TermSpread == nil || *y.TermSpread != 0.25 {
		t.Fatalf("term spread: want 0.25, got %v", y.TermSpread)
	}
	if y.CreditSpreadProxy == nil || *y.CreditSpreadProxy != 0.63 {
		t.Fatalf("credit proxy: want 0.63, got %v", y.CreditSpreadProxy)
	}
	if !Inverted(y) {
		t.Fatalf("negative slope must report an inverted curve")
	}
}

func TestDeriveMissingTenors(t *testing.T) {
	y := Derive(&models.TreasuryYield{Year10: fp(4.20)})
	if y.YieldCurveSlope != nil {
		t.Fatalf("slope needs both 2y and 10y, got %v", *y.YieldCurveSlope)
	}
	if y.TermSpread != nil {
		t.Fatalf("term spread needs both 10y and 30y, got %v", *y.TermSpread)
	}
	if y.CreditSpreadProxy == nil || *y.CreditSpreadProxy != 0.63 {
		t.Fatalf("credit proxy needs only 10y, got %v", y.CreditSpreadProxy)
	}
	if Inverted(y) {
		t.Fatalf("unknown slope is not inverted")
	}
}

func TestDeriveNil(t *testing.T) {
	if Derive(nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}
