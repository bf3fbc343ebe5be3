package tracker

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Makepad-fr/foodtrack/internal/model"
	"github.com/Makepad-fr/foodtrack/internal/store/jsonstore"
)

// memStore is an in-memory Persister that records every save.
type memStore struct {
	initial []model.Food
	status  jsonstore.Status
	saves   [][]model.Food
	failErr error
	moved   bool
}

func (m *memStore) Load() jsonstore.Result {
	foods := append([]model.Food{}, m.initial...)
	return jsonstore.Result{Foods: foods, Status: m.status}
}

func (m *memStore) Save(foods []model.Food) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.saves = append(m.saves, append([]model.Food{}, foods...))
	return nil
}

func (m *memStore) Quarantine() (string, error) {
	m.moved = true
	return "moved", nil
}

func (m *memStore) last() []model.Food {
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

func openWith(t *testing.T, foods ...model.Food) (*Tracker, *memStore) {
	t.Helper()
	ms := &memStore{initial: foods, status: jsonstore.StatusLoaded}
	tr, st := Open(ms, nil)
	if st.Status != jsonstore.StatusLoaded {
		t.Fatalf("Open status = %v", st.Status)
	}
	return tr, ms
}

var (
	apple  = model.Food{Name: "Apple", Calories: 95}
	banana = model.Food{Name: "Banana", Calories: 105}
	carrot = model.Food{Name: "Carrot", Calories: 25}
)

func TestTracker_Scenario(t *testing.T) {
	tr, ms := openWith(t, apple, banana)

	if _, err := tr.Add("Apple", "50"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Add duplicate err = %v, want ErrDuplicate", err)
	}
	if !reflect.DeepEqual(tr.Foods(), []model.Food{apple, banana}) {
		t.Fatalf("store changed after duplicate: %+v", tr.Foods())
	}
	if len(ms.saves) != 0 {
		t.Fatalf("rejected add should not persist, got %d saves", len(ms.saves))
	}

	if _, err := tr.Add("Carrot", "25"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	want := []model.Food{apple, banana, carrot}
	if !reflect.DeepEqual(tr.Foods(), want) {
		t.Fatalf("Foods = %+v, want %+v", tr.Foods(), want)
	}
	if !reflect.DeepEqual(ms.last(), want) {
		t.Fatalf("persisted = %+v, want %+v", ms.last(), want)
	}
	if got := tr.TotalCalories(); got != 225 {
		t.Fatalf("TotalCalories = %d, want 225", got)
	}
	if got := tr.ItemCount(); got != 3 {
		t.Fatalf("ItemCount = %d, want 3", got)
	}

	rows := tr.Filter("an")
	if len(rows) != 1 || rows[0].Index != 2 || rows[0].Name != "Banana" || rows[0].Calories != 105 {
		t.Fatalf("Filter(an) = %+v, want [(2 Banana 105)]", rows)
	}
}

func TestTracker_AddValidation(t *testing.T) {
	tests := []struct {
		name, food, cal string
		kind            error
	}{
		{name: "empty name", food: "", cal: "10", kind: ErrValidation},
		{name: "blank name", food: "   ", cal: "10", kind: ErrValidation},
		{name: "empty calories", food: "Kiwi", cal: "", kind: ErrValidation},
		{name: "not a number", food: "Kiwi", cal: "ten", kind: ErrValidation},
		{name: "float", food: "Kiwi", cal: "4.5", kind: ErrValidation},
		{name: "zero", food: "Kiwi", cal: "0", kind: ErrValidation},
		{name: "negative", food: "Kiwi", cal: "-3", kind: ErrValidation},
		{name: "duplicate wins over bad calories", food: "Apple", cal: "abc", kind: ErrDuplicate},
		{name: "empty wins over duplicate", food: "Apple", cal: "", kind: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ms := openWith(t, apple)
			_, err := tr.Add(tt.food, tt.cal)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("Add(%q, %q) err = %v, want %v", tt.food, tt.cal, err, tt.kind)
			}
			if !IsUserError(err) {
				t.Fatalf("expected user error, got %v", err)
			}
			if tr.ItemCount() != 1 || len(ms.saves) != 0 {
				t.Fatalf("store mutated on rejected add")
			}
		})
	}
}

func TestTracker_AddTrimsAndIsCaseSensitive(t *testing.T) {
	tr, _ := openWith(t, apple)
	f, err := tr.Add("  apple ", " 52 ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if f != (model.Food{Name: "apple", Calories: 52}) {
		t.Fatalf("Add returned %+v", f)
	}
	if rows := tr.Filter(""); len(rows) != 2 {
		t.Fatalf("want both apples, got %+v", rows)
	}
}

func TestTracker_AddThenFilterContainsOnce(t *testing.T) {
	tr, _ := openWith(t, apple, banana)
	if _, err := tr.Add("Date", "66"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	n := 0
	for _, r := range tr.Filter("") {
		if r.Name == "Date" && r.Calories == 66 {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("record appears %d times", n)
	}
}

func TestTracker_Delete(t *testing.T) {
	tr, ms := openWith(t, apple, banana, carrot)
	if err := tr.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []model.Food{apple, carrot}
	if !reflect.DeepEqual(tr.Foods(), want) || !reflect.DeepEqual(ms.last(), want) {
		t.Fatalf("after delete: mem %+v disk %+v", tr.Foods(), ms.last())
	}
	for _, idx := range []int{-1, 2, 10} {
		if err := tr.Delete(idx); !errors.Is(err, ErrSelection) {
			t.Fatalf("Delete(%d) err = %v, want ErrSelection", idx, err)
		}
	}
}

func TestTracker_DeleteOnEmpty(t *testing.T) {
	tr, _ := openWith(t)
	err := tr.Delete(0)
	if !errors.Is(err, ErrSelection) {
		t.Fatalf("err = %v", err)
	}
}

func TestTracker_EditTakesRecord(t *testing.T) {
	tr, ms := openWith(t, apple, banana)
	f, err := tr.Edit(0)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if f != apple {
		t.Fatalf("Edit returned %+v", f)
	}
	if !reflect.DeepEqual(tr.Foods(), []model.Food{banana}) || len(ms.saves) != 1 {
		t.Fatalf("edit should remove and persist: %+v", tr.Foods())
	}
	// resubmitting appends at the end
	if _, err := tr.Add(f.Name, "90"); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	if got := tr.Foods(); got[1] != (model.Food{Name: "Apple", Calories: 90}) {
		t.Fatalf("re-add = %+v", got)
	}
	if _, err := tr.Edit(5); !errors.Is(err, ErrSelection) {
		t.Fatalf("Edit(5) err = %v", err)
	}
}

func TestTracker_Update(t *testing.T) {
	tr, ms := openWith(t, apple, banana, carrot)

	if _, err := tr.Update(0, "Apple", "80"); err != nil {
		t.Fatalf("Update same name: %v", err)
	}
	if _, err := tr.Update(0, "Banana", "80"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Update to other name err = %v, want ErrDuplicate", err)
	}
	if _, err := tr.Update(2, "Carrots", "x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("Update bad calories err = %v", err)
	}
	if _, err := tr.Update(3, "Fig", "40"); !errors.Is(err, ErrSelection) {
		t.Fatalf("Update out of range err = %v", err)
	}
	want := []model.Food{{Name: "Apple", Calories: 80}, banana, carrot}
	if !reflect.DeepEqual(tr.Foods(), want) || !reflect.DeepEqual(ms.last(), want) {
		t.Fatalf("after update: %+v", tr.Foods())
	}
	if len(ms.saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(ms.saves))
	}
}

func TestTracker_SortByNameThenCaloriesIsStable(t *testing.T) {
	tr, ms := openWith(t,
		model.Food{Name: "pear", Calories: 100},
		model.Food{Name: "Banana", Calories: 105},
		model.Food{Name: "apple", Calories: 100},
		model.Food{Name: "Cherry", Calories: 50},
	)
	if err := tr.SortByName(); err != nil {
		t.Fatalf("SortByName: %v", err)
	}
	names := func() []string {
		var out []string
		for _, f := range tr.Foods() {
			out = append(out, f.Name)
		}
		return out
	}
	if got, want := names(), []string{"apple", "Banana", "Cherry", "pear"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("by name = %v, want %v", got, want)
	}
	if err := tr.SortByCalories(); err != nil {
		t.Fatalf("SortByCalories: %v", err)
	}
	if got, want := names(), []string{"Cherry", "apple", "pear", "Banana"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("by calories = %v, want %v", got, want)
	}
	if len(ms.saves) != 2 {
		t.Fatalf("each sort should persist, saves = %d", len(ms.saves))
	}
	if tr.TotalCalories() != 355 {
		t.Fatalf("total changed by sorting: %d", tr.TotalCalories())
	}
}

func TestTracker_FilterKeepsUnfilteredIndex(t *testing.T) {
	tr, _ := openWith(t, apple, banana, carrot, model.Food{Name: "Pineapple", Calories: 82})
	rows := tr.Filter("APPLE")
	if len(rows) != 2 || rows[0].Index != 1 || rows[1].Index != 4 {
		t.Fatalf("Filter(APPLE) = %+v", rows)
	}
	if rows[1].String() != "4. Pineapple - 82 kcal" {
		t.Fatalf("row string = %q", rows[1].String())
	}
	if tr.TotalCalories() != 307 || tr.ItemCount() != 4 {
		t.Fatalf("aggregates must ignore filter: %d %d", tr.TotalCalories(), tr.ItemCount())
	}
	if rows := tr.Filter("zzz"); len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestTracker_PersistenceFailureKeepsChange(t *testing.T) {
	tr, ms := openWith(t, apple)
	ms.failErr = errors.New("disk full")

	_, err := tr.Add("Kiwi", "42")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if IsUserError(err) {
		t.Fatal("persistence failure is not a user error")
	}
	if tr.ItemCount() != 2 {
		t.Fatalf("in-memory add should survive failed save, count = %d", tr.ItemCount())
	}
	if err := tr.SortByName(); !errors.Is(err, ErrPersistence) {
		t.Fatalf("sort err = %v", err)
	}
}

func TestTracker_SubscribeReceivesSnapshots(t *testing.T) {
	tr, _ := openWith(t, apple)
	var got []Change
	cancel := tr.Subscribe(func(c Change) { got = append(got, c) })

	if _, err := tr.Add("Kiwi", "42"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := tr.Add("Kiwi", "42"); err == nil {
		t.Fatal("expected duplicate")
	}
	if err := tr.Delete(0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("changes = %d, want 2 (rejected ops emit nothing)", len(got))
	}
	if got[0].Op != OpAdd || len(got[0].Snapshot) != 2 {
		t.Fatalf("first change = %+v", got[0])
	}
	if got[1].Op != OpDelete || !reflect.DeepEqual(got[1].Snapshot, []model.Food{{Name: "Kiwi", Calories: 42}}) {
		t.Fatalf("second change = %+v", got[1])
	}

	got[1].Snapshot[0].Name = "mutated"
	if tr.Foods()[0].Name != "Kiwi" {
		t.Fatal("snapshot aliases tracker state")
	}

	cancel()
	if err := tr.SortByName(); err != nil {
		t.Fatalf("SortByName: %v", err)
	}
	if len(got) != 2 {
		t.Fatal("cancelled listener still called")
	}
}

func TestOpen_CorruptFileIsQuarantined(t *testing.T) {
	ms := &memStore{status: jsonstore.StatusCorrupt}
	tr, st := Open(ms, nil)
	if st.Status != jsonstore.StatusCorrupt || st.Quarantined != "moved" || !ms.moved {
		t.Fatalf("status = %+v moved=%v", st, ms.moved)
	}
	if tr.ItemCount() != 0 {
		t.Fatalf("want empty tracker")
	}
}

func TestTracker_WithJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), jsonstore.DefaultFileName)
	store, err := jsonstore.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr, st := Open(store, nil)
	if st.Status != jsonstore.StatusMissing || st.Err != nil {
		t.Fatalf("status = %+v", st)
	}
	for _, in := range [][2]string{{"Apple", "95"}, {"Banana", "105"}} {
		if _, err := tr.Add(in[0], in[1]); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != `[["Apple",95],["Banana",105]]` {
		t.Fatalf("file = %s", b)
	}

	reopened, st := Open(store, nil)
	if st.Status != jsonstore.StatusLoaded || !reflect.DeepEqual(reopened.Foods(), tr.Foods()) {
		t.Fatalf("reopen mismatch: %+v vs %+v", reopened.Foods(), tr.Foods())
	}
}

func TestOpen_UnreadableFileIsLeftAlone(t *testing.T) {
	ms := &memStore{status: jsonstore.StatusUnreadable}
	_, st := Open(ms, nil)
	if !st.Failed() || ms.moved || st.Quarantined != "" {
		t.Fatalf("status = %+v moved=%v", st, ms.moved)
	}
}

func TestTracker_VersionCountsMutations(t *testing.T) {
	tr, _ := openWith(t, apple)
	var versions []uint64
	tr.Subscribe(func(c Change) { versions = append(versions, c.Version) })

	if _, err := tr.Add("Apple", "1"); err == nil {
		t.Fatal("expected duplicate")
	}
	if tr.Version() != 0 {
		t.Fatalf("rejected add bumped version to %d", tr.Version())
	}
	_, _ = tr.Add("Kiwi", "42")
	_ = tr.SortByName()
	if !reflect.DeepEqual(versions, []uint64{1, 2}) || tr.Version() != 2 {
		t.Fatalf("versions = %v, tracker at %d", versions, tr.Version())
	}
}
