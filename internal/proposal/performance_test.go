package proposal

import (
	"math"
	"testing"
	"time"

	"github.com/iwvelando/adu-proposal/internal/milestone"
	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
)

// TestScheduleConsistencyAcrossSizes checks that every size and option mix
// yields a schedule that pays out exactly the discounted total.
func TestScheduleConsistencyAcrossSizes(t *testing.T) {
	a := testAssembler()
	cfg := pricingconfig.Defaults()

	for sqft := 200.0; sqft <= 1200; sqft += 37.5 {
		for _, discount := range []bool{false, true} {
			inputs := pricing.Inputs{
				SquareFootage:            sqft,
				ADUType:                  pricingconfig.Detached,
				Utilities:                pricing.Utilities{WaterMeter: pricing.Separate, GasMeter: pricing.Shared},
				NeedsDesign:              true,
				SelectedAddOns:           []string{"driveway"},
				FriendsAndFamilyDiscount: discount,
			}
			e, err := a.Estimate(inputs, cfg)
			if err != nil {
				t.Fatalf("Estimate(%v sq ft) error = %v", sqft, err)
			}

			paid := milestone.Total(e.Milestones) + e.DesignFee + e.Deposit
			if math.Abs(paid-e.Discount.Total) > 0.001 {
				t.Errorf("%v sq ft discount=%v: payments total %.2f, expected %.2f", sqft, discount, paid, e.Discount.Total)
			}
			for _, p := range e.Milestones {
				if p.Amount < 0 {
					t.Errorf("%v sq ft: milestone %s is negative: %v", sqft, p.Code, p.Amount)
				}
			}
		}
	}
}

// TestPerformance times the estimate and render steps.
func TestPerformance(t *testing.T) {
	if !testing.Verbose() {
		t.Skip("Skipping performance test. Run with -v to enable.")
	}

	f, err := ParseForm([]byte(formYAML))
	if err != nil {
		t.Fatalf("ParseForm() error = %v", err)
	}
	a := testAssembler()
	cfg := pricingconfig.Defaults()

	start := time.Now()
	const iterations = 200
	for i := 0; i < iterations; i++ {
		if _, err := a.Assemble(f, cfg, ""); err != nil {
			t.Fatalf("Assemble() failed on iteration %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	t.Logf("Assembled %d proposals in %v (%v each)", iterations, elapsed, elapsed/iterations)
	if elapsed/iterations > 50*time.Millisecond {
		t.Errorf("Assemble() averaged %v, expected under 50ms", elapsed/iterations)
	}
}

func BenchmarkEstimate(b *testing.B) {
	f, _ := ParseForm([]byte(formYAML))
	inputs, _ := f.Inputs()
	a := testAssembler()
	cfg := pricingconfig.Defaults()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Estimate(inputs, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble(b *testing.B) {
	f, _ := ParseForm([]byte(formYAML))
	a := testAssembler()
	cfg := pricingconfig.Defaults()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Assemble(f, cfg, ""); err != nil {
			b.Fatal(err)
		}
	}
}
