package tracker

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/Makepad-fr/foodtrack/internal/logger"
	"github.com/Makepad-fr/foodtrack/internal/model"
	"github.com/Makepad-fr/foodtrack/internal/store/jsonstore"
)

// Persister loads and saves the whole list. *jsonstore.Store implements it.
type Persister interface {
	Load() jsonstore.Result
	Save([]model.Food) error
	Quarantine() (string, error)
}

// Op names the mutation that produced a Change.
type Op string

const (
	OpAdd            Op = "add"
	OpDelete         Op = "delete"
	OpEdit           Op = "edit"
	OpUpdate         Op = "update"
	OpSortByName     Op = "sort-name"
	OpSortByCalories Op = "sort-calories"
)

// Change is emitted after every mutation, once the write has been attempted.
// Snapshot is a copy; listeners may keep it. Version increases by one per
// mutation, so a listener can drop a Change older than what it already shows.
type Change struct {
	Op       Op
	Version  uint64
	Snapshot []model.Food
	SaveErr  error
}

// LoadStatus reports what Open found, so callers can warn about a bad file.
type LoadStatus struct {
	Status      jsonstore.Status
	Err         error
	Quarantined string
}

// Failed reports whether the data file existed but could not be used.
func (s LoadStatus) Failed() bool {
	return jsonstore.Result{Status: s.Status}.Failed()
}

// Tracker is the in-memory food list mirrored to a Persister.
// It is not safe for concurrent use.
type Tracker struct {
	foods     []model.Food
	store     Persister
	log       *logger.Logger
	listeners map[int]func(Change)
	nextID    int
	version   uint64
}

// Open loads the list from p. A missing, corrupt or unreadable file yields an
// empty tracker; a corrupt one is quarantined first.
func Open(p Persister, log *logger.Logger) (*Tracker, LoadStatus) {
	if log == nil {
		log = logger.Nop()
	}
	res := p.Load()
	t := &Tracker{
		foods:     res.Foods,
		store:     p,
		log:       log,
		listeners: make(map[int]func(Change)),
	}
	if t.foods == nil {
		t.foods = []model.Food{}
	}
	st := LoadStatus{Status: res.Status, Err: res.Err}
	switch res.Status {
	case jsonstore.StatusLoaded:
		log.Infow("data loaded", "items", len(t.foods))
	case jsonstore.StatusMissing:
		log.Infow("no data file yet, starting empty")
	case jsonstore.StatusCorrupt:
		log.WithError(res.Err).Warnw("data file corrupt, starting empty")
		moved, err := p.Quarantine()
		if err != nil {
			log.WithError(err).Errorw("quarantine failed")
		}
		st.Quarantined = moved
	case jsonstore.StatusUnreadable:
		log.WithError(res.Err).Warnw("data file unreadable, starting empty")
	}
	return t, st
}

// Add validates and appends a record. Checks run in order: empty fields,
// duplicate name (exact match), then calories must be a positive integer.
func (t *Tracker) Add(name, calories string) (model.Food, error) {
	f, err := t.parse(name, calories, -1)
	if err != nil {
		return model.Food{}, err
	}
	t.foods = append(t.foods, f)
	return f, t.commit(OpAdd)
}

// Delete removes the record at index (0-based). Confirmation is the caller's job.
func (t *Tracker) Delete(index int) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.foods = slices.Delete(t.foods, index, index+1)
	return t.commit(OpDelete)
}

// Edit removes the record at index and hands it back so the caller can
// prefill its inputs and resubmit through Add.
func (t *Tracker) Edit(index int) (model.Food, error) {
	if err := t.checkIndex(index); err != nil {
		return model.Food{}, err
	}
	f := t.foods[index]
	t.foods = slices.Delete(t.foods, index, index+1)
	return f, t.commit(OpEdit)
}

// Update replaces the record at index in place, validating like Add.
// The record being replaced does not count as a duplicate of itself.
func (t *Tracker) Update(index int, name, calories string) (model.Food, error) {
	if err := t.checkIndex(index); err != nil {
		return model.Food{}, err
	}
	f, err := t.parse(name, calories, index)
	if err != nil {
		return model.Food{}, err
	}
	t.foods[index] = f
	return f, t.commit(OpUpdate)
}

// SortByName sorts in place, case-insensitively, keeping ties in order.
func (t *Tracker) SortByName() error {
	slices.SortStableFunc(t.foods, func(a, b model.Food) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return t.commit(OpSortByName)
}

// SortByCalories sorts in place by calorie value, keeping ties in order.
func (t *Tracker) SortByCalories() error {
	slices.SortStableFunc(t.foods, func(a, b model.Food) int {
		return cmp.Compare(a.Calories, b.Calories)
	})
	return t.commit(OpSortByCalories)
}

// Foods returns a copy of the list in store order.
func (t *Tracker) Foods() []model.Food {
	return slices.Clone(t.foods)
}

// Version counts the mutations applied since Open.
func (t *Tracker) Version() uint64 { return t.version }

// Subscribe registers fn for every subsequent Change. Call the returned
// func to stop receiving.
func (t *Tracker) Subscribe(fn func(Change)) (cancel func()) {
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	return func() { delete(t.listeners, id) }
}

func (t *Tracker) parse(name, calories string, skip int) (model.Food, error) {
	name = strings.TrimSpace(name)
	calories = strings.TrimSpace(calories)
	if name == "" || calories == "" {
		return model.Food{}, validationf("please enter both food name and calories")
	}
	for i, f := range t.foods {
		if i != skip && f.Name == name {
			return model.Food{}, &Error{Kind: ErrDuplicate, Msg: "this food item is already in the list"}
		}
	}
	n, err := strconv.Atoi(calories)
	if err != nil || n <= 0 {
		return model.Food{}, validationf("calories must be a positive integer")
	}
	f := model.Food{Name: name, Calories: n}
	if err := model.Validate(f); err != nil {
		return model.Food{}, &Error{Kind: ErrValidation, Err: err}
	}
	return f, nil
}

func (t *Tracker) checkIndex(index int) error {
	if index < 0 || index >= len(t.foods) {
		return selectionError(index, len(t.foods))
	}
	return nil
}

// commit writes the full list, then notifies listeners. A failed write leaves
// the in-memory change in place.
func (t *Tracker) commit(op Op) error {
	var saveErr error
	if err := t.store.Save(t.foods); err != nil {
		t.log.WithError(err).Errorw("save failed", "op", op, "items", len(t.foods))
		saveErr = persistenceError(err)
	} else {
		t.log.Debugw("saved", "op", op, "items", len(t.foods))
	}
	t.version++
	ch := Change{Op: op, Version: t.version, Snapshot: t.Foods(), SaveErr: saveErr}
	for _, fn := range t.listeners {
		fn(ch)
	}
	return saveErr
}
