package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gkh-data/domscan/internal/types"
)

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }
func strp(v string) *string { return &v }

// --- regions ---

func testTree() []*types.Region {
	country := types.NewRegion(nil, "Алтайский край", intp(2208043), 7167)
	city := types.NewRegion(country, "Барнаул", intp(2208300), 803)
	return []*types.Region{
		types.NewRegion(city, "Центральный район", intp(2208310), 401),
		types.NewRegion(city, "Октябрьский район", intp(2208311), 402),
		types.NewRegion(country, "Городской округ", nil, 55),
		types.NewRegion(nil, "Байконур", intp(2209000), 12),
	}
}

func TestRegionsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.json")

	if err := SaveRegions(path, testTree()); err != nil {
		t.Fatalf("SaveRegions: %v", err)
	}
	leaves, err := LoadRegions(path)
	if err != nil {
		t.Fatalf("LoadRegions: %v", err)
	}
	if len(leaves) != 4 {
		t.Fatalf("got %d leaves, want 4", len(leaves))
	}

	first := leaves[0]
	if first.Name != "Центральный район" || *first.ID != 2208310 || first.Buildings != 401 {
		t.Errorf("leaf = %+v", first)
	}
	if first.Parent == nil || first.Parent.Name != "Барнаул" {
		t.Fatalf("parent = %+v", first.Parent)
	}
	if first.Parent.Parent == nil || first.Parent.Parent.Name != "Алтайский край" {
		t.Fatalf("grandparent = %+v", first.Parent.Parent)
	}
	if first.Parent.Parent.Parent != nil {
		t.Error("grandparent should be a root")
	}

	// Siblings share their ancestor chain after a reload.
	if leaves[0].Parent != leaves[1].Parent {
		t.Error("siblings rebuilt with distinct parents")
	}

	if leaves[2].ID != nil {
		t.Errorf("pseudo-region id = %d, want nil", *leaves[2].ID)
	}
	if leaves[2].Parent == nil || leaves[2].Parent.Name != "Алтайский край" {
		t.Errorf("pseudo-region parent = %+v", leaves[2].Parent)
	}

	if leaves[3].Parent != nil {
		t.Error("top-level leaf should keep a nil parent")
	}
}

func TestLoadRegionsMissingParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.json")

	// A leaf row pointing at an id absent from the parent table.
	raw := `[{}, [[999, "Барнаул", 2208300, 803]]]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadRegions(path)
	if !errors.Is(err, types.ErrMissingParent) {
		t.Fatalf("err = %v, want ErrMissingParent", err)
	}
}

// --- listings ---

func testListings(region *types.Region) []types.ListingRecord {
	company := "ООО УК Город"
	other := "МУП ЖЭУ-5"
	return []types.ListingRecord{
		{Region: region, ID: 101, Address: "ул. Ленина, д. 1", Year: intp(1970), Area: floatp(3394.6), Company: &company},
		{Region: region, ID: 102, Address: "ул. Ленина, д. 2", Company: &company},
		{Region: region, ID: 103, Address: "ул. Ленина, д. 3", Year: intp(2001), Company: &other},
		{Region: region, ID: 104, Address: "ул. Ленина, д. 4"},
	}
}

func TestListingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region_lists.json")
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)

	if err := SaveListings(path, testListings(region)); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}
	records, err := LoadListings(path, []*types.Region{region})
	if err != nil {
		t.Fatalf("LoadListings: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	r := records[0]
	if r.Region != region {
		t.Error("record not resolved onto the given region")
	}
	if r.ID != 101 || r.Address != "ул. Ленина, д. 1" {
		t.Errorf("record = %+v", r)
	}
	if r.Year == nil || *r.Year != 1970 {
		t.Errorf("year = %v", r.Year)
	}
	if r.Area == nil || *r.Area != 3394.6 {
		t.Errorf("area = %v", r.Area)
	}
	if r.Company == nil || *r.Company != "ООО УК Город" {
		t.Errorf("company = %v", r.Company)
	}
	if records[1].Company == nil || *records[1].Company != "ООО УК Город" {
		t.Errorf("interned company = %v", records[1].Company)
	}
	if records[3].Company != nil {
		t.Errorf("company = %q, want nil", *records[3].Company)
	}
	if records[3].Year != nil || records[3].Area != nil {
		t.Error("absent year and area should stay nil")
	}
}

func TestListingsInternCompanyIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region_lists.json")
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)

	if err := SaveListings(path, testListings(region)); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var file []json.RawMessage
	if err := json.Unmarshal(raw, &file); err != nil {
		t.Fatal(err)
	}
	var companies map[string]int
	if err := json.Unmarshal(file[0], &companies); err != nil {
		t.Fatal(err)
	}

	// A company's id is the index of the first row that mentioned it.
	if companies["ООО УК Город"] != 0 {
		t.Errorf("id = %d, want 0", companies["ООО УК Город"])
	}
	if companies["МУП ЖЭУ-5"] != 2 {
		t.Errorf("id = %d, want 2", companies["МУП ЖЭУ-5"])
	}
}

func TestLoadListingsMissingRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region_lists.json")
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)

	if err := SaveListings(path, testListings(region)); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}

	other := types.NewRegion(nil, "Бийск", intp(2208400), 100)
	_, err := LoadListings(path, []*types.Region{other})
	if !errors.Is(err, types.ErrMissingRegion) {
		t.Fatalf("err = %v, want ErrMissingRegion", err)
	}
}

// --- profiles ---

func testProfile(region *types.Region) *types.BuildingProfile {
	return &types.BuildingProfile{
		Region:      region,
		ID:          8096437,
		Coordinates: &types.Coordinates{Latitude: 53.348689, Longitude: 83.779837},
		Dates:       types.BuildYears{Built: intp(1970), Opened: intp(1971)},
		Measures: types.Measures{
			Floors:     types.FloorRange{Min: intp(2), Max: intp(5)},
			Apartments: intp(60),
			Entrances:  intp(4),
			AreaM2:     floatp(3394.6),
		},
		Class: types.Classification{
			BuildingType:  strp("Многоквартирный дом"),
			Series:        strp("464"),
			CapitalRepair: strp("На счете регионального оператора"),
			Condemned:     new(bool),
		},
	}
}

func TestProfilesRoundTrip(t *testing.T) {
	store, err := OpenProfiles(filepath.Join(t.TempDir(), "profiles"))
	if err != nil {
		t.Fatalf("OpenProfiles: %v", err)
	}
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)
	index := IndexRegions([]*types.Region{region})

	profile := testProfile(region)
	if store.Has(profile.ID) {
		t.Fatal("Has = true before Save")
	}
	if err := store.Save(profile); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Has(profile.ID) {
		t.Fatal("Has = false after Save")
	}

	got, err := store.Load(profile.ID, index)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Region != region {
		t.Error("profile not resolved onto the given region")
	}
	if got.Coordinates == nil || got.Coordinates.Latitude != 53.348689 || got.Coordinates.Longitude != 83.779837 {
		t.Errorf("coordinates = %+v", got.Coordinates)
	}
	if got.Dates.Opened == nil || *got.Dates.Opened != 1971 {
		t.Errorf("opened = %v", got.Dates.Opened)
	}
	if got.Measures.Floors.Max == nil || *got.Measures.Floors.Max != 5 {
		t.Errorf("floors max = %v", got.Measures.Floors.Max)
	}
	if got.Measures.Elevators != nil {
		t.Error("absent elevators should stay nil")
	}
	if got.Class.Condemned == nil || *got.Class.Condemned {
		t.Errorf("condemned = %v", got.Class.Condemned)
	}
	if got.Class.EnergyClass != nil {
		t.Error("absent energy class should stay nil")
	}
}

// The snapshot file is a positional tuple, so the element order is
// load-bearing for every reader of the profiles directory.
func TestProfilesFileShape(t *testing.T) {
	store, err := OpenProfiles(filepath.Join(t.TempDir(), "profiles"))
	if err != nil {
		t.Fatalf("OpenProfiles: %v", err)
	}
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)

	if err := store.Save(testProfile(region)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(store.Path(8096437))
	if err != nil {
		t.Fatal(err)
	}
	want := `[2208300,8096437,[53.348689,83.779837],[1970,1971],` +
		`[[2,5],60,4,null,3394.6,null],` +
		`["Многоквартирный дом","464","На счете регионального оператора",false,null]]`
	if string(raw) != want {
		t.Errorf("snapshot = %s, want %s", raw, want)
	}
}

func TestProfilesNilCoordinates(t *testing.T) {
	store, err := OpenProfiles(filepath.Join(t.TempDir(), "profiles"))
	if err != nil {
		t.Fatalf("OpenProfiles: %v", err)
	}
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)

	profile := testProfile(region)
	profile.Coordinates = nil
	if err := store.Save(profile); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(profile.ID, IndexRegions([]*types.Region{region}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Coordinates != nil {
		t.Errorf("coordinates = %+v, want nil", got.Coordinates)
	}
}

func TestProfilesIDs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	store, err := OpenProfiles(dir)
	if err != nil {
		t.Fatalf("OpenProfiles: %v", err)
	}
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)

	for _, id := range []int{30, 10, 20} {
		profile := testProfile(region)
		profile.ID = id
		if err := store.Save(profile); err != nil {
			t.Fatalf("Save(%d): %v", id, err)
		}
	}
	// Stray files are not snapshots, neither is a temp file left by a
	// crashed write.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "40.json.tmp"), []byte("["), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := store.IDs()
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 10 || ids[1] != 20 || ids[2] != 30 {
		t.Fatalf("ids = %v, want [10 20 30]", ids)
	}
}

func TestProfilesLoadMissingRegion(t *testing.T) {
	store, err := OpenProfiles(filepath.Join(t.TempDir(), "profiles"))
	if err != nil {
		t.Fatalf("OpenProfiles: %v", err)
	}
	region := types.NewRegion(nil, "Барнаул", intp(2208300), 803)

	if err := store.Save(testProfile(region)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err = store.Load(8096437, map[int]*types.Region{})
	if !errors.Is(err, types.ErrMissingRegion) {
		t.Fatalf("err = %v, want ErrMissingRegion", err)
	}
}
