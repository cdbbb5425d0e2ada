package diff

import (
	"reflect"
	"time"

	odiff "github.com/r3labs/diff/v3"
)

func GetCustomDiffer() *odiff.Differ {
	ret, err := odiff.NewDiffer(odiff.CustomValueDiffers(&TimeComparer{}))
	if err != nil {
		panic(err)
	}
	return ret
}

// Changes returns the changelog from a to b. Slices of structs tagged with
// `diff:"id,identifier"` are matched by that id, not by position.
func Changes(a, b interface{}) (odiff.Changelog, error) {
	return GetCustomDiffer().Diff(a, b)
}

// CountByType counts the changelog entries of each change type.
func CountByType(cl odiff.Changelog) map[string]int {
	counts := make(map[string]int, 3)
	for _, c := range cl {
		counts[c.Type]++
	}
	return counts
}

// TimeComparer compares time.Time values as instants.
type TimeComparer struct{}

var (
	timeType = reflect.TypeOf(time.Time{})
)

// Match check is field match this custom type
func (c TimeComparer) Match(a, b reflect.Value) bool {
	aok := a.Kind() == timeType.Kind() && a.Type() == timeType
	bok := b.Kind() == timeType.Kind() && b.Type() == timeType
	return (aok && bok) || (a.Kind() == reflect.Invalid && bok) || (b.Kind() == reflect.Invalid && aok)
}

// Diff check is diff or not
func (c TimeComparer) Diff(_ odiff.DiffType, _ odiff.DiffFunc, cl *odiff.Changelog, path []string, a reflect.Value, b reflect.Value, _ interface{}) error {
	valA := reflect.Indirect(a)
	valB := reflect.Indirect(b)

	// a missing side means the whole value was created or deleted
	if !valA.IsValid() || !valB.IsValid() {
		switch {
		case valA.IsValid():
			cl.Add(odiff.DELETE, path, valA.Interface(), nil)
		case valB.IsValid():
			cl.Add(odiff.CREATE, path, nil, valB.Interface())
		}
		return nil
	}

	t1 := valA.Interface().(time.Time)
	t2 := valB.Interface().(time.Time)

	// monotonic readings and locations do not count as a change
	if !t1.Equal(t2) {
		cl.Add(odiff.UPDATE, path, t1, t2)
	}
	return nil
}

// InsertParentDiffer do something with parent,
// time is leaf, so do not thing
func (c TimeComparer) InsertParentDiffer(_ func(path []string, a reflect.Value, b reflect.Value, p interface{}) error) {
	// do not thing
}
