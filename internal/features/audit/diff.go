package audit

import (
	"encoding/json"
	"reflect"

	common_models "charity-admin/internal/common/models"
)

// Diff compares two versions of a record by their JSON fields and returns the
// top-level fields that changed. Bookkeeping fields are ignored.
func Diff(before, after interface{}) map[string]common_models.Change {
	oldFields := toFields(before)
	newFields := toFields(after)

	changes := map[string]common_models.Change{}
	for key, newVal := range newFields {
		if ignoredField(key) {
			continue
		}
		oldVal, ok := oldFields[key]
		if !ok || !reflect.DeepEqual(oldVal, newVal) {
			changes[key] = common_models.Change{Old: oldVal, New: newVal}
		}
	}
	for key, oldVal := range oldFields {
		if _, ok := newFields[key]; !ok && !ignoredField(key) {
			changes[key] = common_models.Change{Old: oldVal, New: nil}
		}
	}
	return changes
}

func ignoredField(key string) bool {
	switch key {
	case "_id", "createdAt", "updatedAt":
		return true
	}
	return false
}

func toFields(v interface{}) map[string]interface{} {
	fields := map[string]interface{}{}
	if v == nil {
		return fields
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fields
	}
	_ = json.Unmarshal(raw, &fields)
	return fields
}
