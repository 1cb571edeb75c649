package finance

import (
	"math"
	"testing"

	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		price, shipping    int64
		commission, profit int64
		health             Health
	}{
		{1000, 200, 100, 700, HealthHealthy},
		{0, 0, 0, 0, HealthAtRisk},
		{9, 0, 0, 9, HealthHealthy},
		{19, 0, 1, 18, HealthHealthy},
		{1999, 175, 199, 1625, HealthHealthy},
		{300, 270, 30, 0, HealthAtRisk},
		{300, 320, 30, -50, HealthAtRisk},
	}

	for _, tt := range tests {
		b := Compute(tt.price, tt.shipping)
		if b.Commission != tt.commission {
			t.Errorf("Compute(%d, %d) commission = %d, want %d", tt.price, tt.shipping, b.Commission, tt.commission)
		}
		if b.Profit != tt.profit {
			t.Errorf("Compute(%d, %d) profit = %d, want %d", tt.price, tt.shipping, b.Profit, tt.profit)
		}
		if b.Health != tt.health {
			t.Errorf("Compute(%d, %d) health = %q, want %q", tt.price, tt.shipping, b.Health, tt.health)
		}
	}
}

func TestCommissionMatchesFloor(t *testing.T) {
	for price := int64(0); price <= 5000; price++ {
		want := int64(math.Floor(float64(price) / 10))
		if got := Commission(price); got != want {
			t.Fatalf("Commission(%d) = %d, want %d", price, got, want)
		}
		if got := Profit(price, 100); got != price-want-100 {
			t.Fatalf("Profit(%d, 100) = %d", price, got)
		}
	}
}

func TestComputeLargeAmounts(t *testing.T) {
	tests := []struct {
		price, shipping    int64
		commission, profit int64
		health             Health
	}{
		{1e18, 0, 1e17, 9e17, HealthHealthy},
		{math.MaxInt64, 0, 922337203685477580, 8301034833169298227, HealthHealthy},
		{math.MaxInt64, math.MaxInt64, 922337203685477580, -922337203685477580, HealthAtRisk},
		{0, math.MaxInt64, 0, -math.MaxInt64, HealthAtRisk},
	}

	for _, tt := range tests {
		b := Compute(tt.price, tt.shipping)
		if b.Commission != tt.commission || b.Profit != tt.profit || b.Health != tt.health {
			t.Errorf("Compute(%d, %d) = %+v, want commission %d profit %d %s",
				tt.price, tt.shipping, b, tt.commission, tt.profit, tt.health)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		profit int64
		want   Health
	}{
		{0, HealthAtRisk},
		{1, HealthHealthy},
		{-50, HealthAtRisk},
		{700, HealthHealthy},
	}

	for _, tt := range tests {
		if got := Classify(tt.profit); got != tt.want {
			t.Errorf("Classify(%d) = %q, want %q", tt.profit, got, tt.want)
		}
	}

	if !Compute(100, 90).AtRisk() {
		t.Error("expected zero profit to be at risk")
	}
}

func TestSummarize(t *testing.T) {
	items := []model.Item{
		{Name: "a", Price: 1000, Shipping: 200, Status: lifecycle.Listed},
		{Name: "b", Price: 500, Shipping: 600, Status: lifecycle.Preparing},
		{Name: "c", Price: 2000, Shipping: 100, Status: lifecycle.Received},
	}

	s := Summarize(items)
	if s.Active != 2 || s.Completed != 1 {
		t.Errorf("expected 2 active and 1 completed, got %d and %d", s.Active, s.Completed)
	}
	if s.ListedValue != 1500 {
		t.Errorf("expected listed value 1500, got %d", s.ListedValue)
	}
	// 700 + (500 - 50 - 600)
	if s.ProjectedProfit != 550 {
		t.Errorf("expected projected profit 550, got %d", s.ProjectedProfit)
	}
	if s.RealisedProfit != 1700 {
		t.Errorf("expected realised profit 1700, got %d", s.RealisedProfit)
	}
	if s.Commission != 350 {
		t.Errorf("expected commission 350, got %d", s.Commission)
	}
	if s.AtRisk != 1 {
		t.Errorf("expected 1 at-risk item, got %d", s.AtRisk)
	}
	if s.Stages[lifecycle.Shipped] != 0 || s.Stages[lifecycle.Listed] != 1 {
		t.Errorf("unexpected stage counts: %v", s.Stages)
	}
}
