package marketdata

import "testing"

func snap(ts int64, price float64) Snapshot {
	return Snapshot{
		Instrument:   "BTCUSDT",
		Price:        price,
		Features:     []float64{1, 2},
		FeatureNames: []string{"a", "b"},
		Timestamp:    ts,
	}
}

func TestLatestBeforeFirstUpdate(t *testing.T) {
	s := NewStore()
	if _, ok := s.Latest("BTCUSDT"); ok {
		t.Fatal("Latest must report absence before the first update")
	}
}

func TestUpdateAndLatest(t *testing.T) {
	s := NewStore()
	if err := s.Update(snap(100, 65000)); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Latest("BTCUSDT")
	if !ok || got.Price != 65000 || got.Timestamp != 100 {
		t.Fatalf("got %+v", got)
	}
	if _, ok := s.Latest("ETHUSDT"); ok {
		t.Fatal("other instruments must stay absent")
	}
}

func TestUpdateRejectsOutOfOrder(t *testing.T) {
	s := NewStore()
	if err := s.Update(snap(200, 65000)); err != nil {
		t.Fatal(err)
	}
	if err := s.Update(snap(100, 64000)); err == nil {
		t.Fatal("out-of-order update must be rejected")
	}
	got, _ := s.Latest("BTCUSDT")
	if got.Price != 65000 {
		t.Fatalf("rejected update overwrote the snapshot: %+v", got)
	}

	// Equal timestamps are a refresh, not a reordering.
	if err := s.Update(snap(200, 66000)); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateRequiresInstrument(t *testing.T) {
	s := NewStore()
	if err := s.Update(Snapshot{Price: 1, Timestamp: 1}); err == nil {
		t.Fatal("missing instrument must be rejected")
	}
}

func TestLatestReturnsCopy(t *testing.T) {
	s := NewStore()
	if err := s.Update(snap(100, 65000)); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Latest("BTCUSDT")
	got.Features[0] = 999
	got.FeatureNames[0] = "mutated"

	again, _ := s.Latest("BTCUSDT")
	if again.Features[0] != 1 || again.FeatureNames[0] != "a" {
		t.Fatal("caller mutation leaked into the store")
	}
}
