package risk

import "testing"

func TestAllowOrderBasic(t *testing.T) {
	m := New(Config{MaxOpenPositions: 5, MaxDailyLoss: 100, MaxPositionSize: 50})
	if err := m.Allow("m1", 25, 1000); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}

func TestBlockOnMaxOpenPositions(t *testing.T) {
	m := New(Config{MaxOpenPositions: 1, MaxDailyLoss: 100, MaxPositionSize: 50})
	m.RecordFill("m1", 10)
	if err := m.Allow("m2", 5, 1000); err == nil {
		t.Fatal("expected block on max open positions")
	}
}

func TestAllowsAddingToAlreadyOpenPositionAtCap(t *testing.T) {
	m := New(Config{MaxOpenPositions: 1, MaxDailyLoss: 100, MaxPositionSize: 50})
	m.RecordFill("m1", 10)
	if err := m.Allow("m1", 5, 1000); err != nil {
		t.Fatalf("expected allow when adding to the same already-open market, got %v", err)
	}
}

func TestBlockOnDailyLoss(t *testing.T) {
	m := New(Config{MaxOpenPositions: 20, MaxDailyLoss: 100, MaxPositionSize: 50})
	m.RecordResolution("m1", -101)
	if err := m.Allow("m2", 25, 1000); err == nil {
		t.Fatal("expected block on daily loss")
	}
}

func TestBlockOnPositionSizeLimit(t *testing.T) {
	m := New(Config{MaxOpenPositions: 20, MaxDailyLoss: 100, MaxPositionSize: 50})
	m.RecordFill("m1", 30)
	if err := m.Allow("m1", 25, 1000); err == nil {
		t.Fatal("expected block on position size limit")
	}
}

func TestBlockOnPositionPctLimit(t *testing.T) {
	m := New(Config{MaxPositionPct: 0.05})
	if err := m.Allow("m1", 60, 1000); err == nil {
		t.Fatal("expected block on position pct limit")
	}
}

func TestRecordResolutionClearsExposureAndAppliesPnL(t *testing.T) {
	m := New(Config{MaxPositionSize: 50})
	m.RecordFill("m1", 40)
	m.RecordResolution("m1", -10)
	if m.DailyPnL() != -10 {
		t.Fatalf("expected daily pnl -10, got %f", m.DailyPnL())
	}
	if err := m.Allow("m1", 40, 1000); err != nil {
		t.Fatalf("expected allow after exposure cleared, got %v", err)
	}
}

func TestResetDaily(t *testing.T) {
	m := New(Config{})
	m.RecordResolution("m1", -50)
	m.RecordResolution("m2", -40)
	if m.DailyPnL() != -90 {
		t.Fatalf("expected -90, got %f", m.DailyPnL())
	}
	m.ResetDaily()
	if m.DailyPnL() != 0 {
		t.Fatalf("expected 0 after reset, got %f", m.DailyPnL())
	}
}

func TestShouldStopLoss(t *testing.T) {
	m := New(Config{StopLossPct: 0.2})
	if m.ShouldStopLoss(0.1) {
		t.Fatal("expected no stop-loss trigger at 10% loss with 20% threshold")
	}
	if !m.ShouldStopLoss(0.25) {
		t.Fatal("expected stop-loss trigger at 25% loss with 20% threshold")
	}
}

func TestShouldStopLossDisabledWhenZero(t *testing.T) {
	m := New(Config{})
	if m.ShouldStopLoss(10) {
		t.Fatal("expected stop-loss disabled when StopLossPct is zero")
	}
}
