package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }
func strp(v string) *string { return &v }

// --- Region Tests ---

func TestRegionPath(t *testing.T) {
	root := NewRegion(nil, "Россия", nil, 100)
	mid := NewRegion(root, "Московская обл.", intp(17), 50)
	leaf := NewRegion(mid, "г. Люберцы", intp(23), 12)

	got := leaf.Path()
	want := "Россия / Московская обл. / г. Люберцы"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRegionHasAncestor(t *testing.T) {
	root := NewRegion(nil, "Россия", nil, 100)
	mid := NewRegion(root, "Московская обл.", intp(17), 50)
	leaf := NewRegion(mid, "г. Люберцы", intp(23), 12)

	if !leaf.HasAncestor("Московская обл.") {
		t.Error("expected ancestor match")
	}
	if !leaf.HasAncestor("г. Люберцы") {
		t.Error("expected self match")
	}
	if leaf.HasAncestor("Самарская обл.") {
		t.Error("unexpected match for foreign name")
	}
}

// --- Tuple Codec Tests ---

func TestCoordinatesTupleOrder(t *testing.T) {
	c := Coordinates{Latitude: 55.75, Longitude: 37.62}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[55.75,37.62]" {
		t.Errorf("expected latitude first, got %s", data)
	}

	var back Coordinates
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Errorf("round trip changed value: %+v", back)
	}
}

func TestMeasuresTupleWithNulls(t *testing.T) {
	m := Measures{
		Floors:     FloorRange{Min: intp(1), Max: intp(9)},
		Apartments: intp(144),
		AreaM2:     floatp(6150.3),
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[[1,9],144,null,null,6150.3,null]" {
		t.Errorf("unexpected encoding: %s", data)
	}

	var back Measures
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Entrances != nil || back.Elevators != nil || back.ParkingM2 != nil {
		t.Error("expected nil fields to stay nil")
	}
	if back.Apartments == nil || *back.Apartments != 144 {
		t.Errorf("expected 144 apartments, got %v", back.Apartments)
	}
	if back.Floors.Max == nil || *back.Floors.Max != 9 {
		t.Errorf("expected max floor 9, got %v", back.Floors.Max)
	}
}

func TestClassificationTuple(t *testing.T) {
	condemned := false
	c := Classification{
		BuildingType: strp("Многоквартирный дом"),
		Series:       strp("индивидуальный"),
		Condemned:    &condemned,
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Classification
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Condemned == nil || *back.Condemned {
		t.Errorf("expected condemned=false, got %v", back.Condemned)
	}
	if back.CapitalRepair != nil || back.EnergyClass != nil {
		t.Error("expected nil fields to stay nil")
	}
}

func TestTupleArityMismatch(t *testing.T) {
	var m Measures
	err := json.Unmarshal([]byte(`[[1,2],3]`), &m)
	if !errors.Is(err, ErrBadSnapshot) {
		t.Errorf("expected ErrBadSnapshot, got %v", err)
	}

	var c Coordinates
	err = json.Unmarshal([]byte(`[55.75]`), &c)
	if !errors.Is(err, ErrBadSnapshot) {
		t.Errorf("expected ErrBadSnapshot, got %v", err)
	}
}

// --- Error Tests ---

func TestErrorUnwrap(t *testing.T) {
	fe := &FetchError{URL: "https://example.com", Err: ErrNotCached}
	if !errors.Is(fe, ErrNotCached) {
		t.Error("FetchError should unwrap to its cause")
	}

	se := &StoreError{Target: "data/regions.json", Err: ErrMissingParent}
	if !errors.Is(se, ErrMissingParent) {
		t.Error("StoreError should unwrap to its cause")
	}
}
