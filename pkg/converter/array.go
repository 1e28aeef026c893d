// pkg/converter/array.go
package converter

import (
	"fmt"
)

// AsMapping returns the value as a dict literal
func AsMapping(value any) (*Dict, bool) {
	d, ok := value.(*Dict)
	return d, ok
}

// AsRecordList returns the entries of a sequence of mappings. Lists and tuples
// must hold only dicts; empty iterables of any kind yield no entries. Any other
// value is an error.
func AsRecordList(value any) ([]*Dict, error) {
	var items []any
	switch v := value.(type) {
	case List:
		items = v
	case Tuple:
		items = v
	case string, Bytes, Set, *Dict:
		if Truthy(v) {
			return nil, fmt.Errorf("expected a sequence of mappings, got %s", TypeName(v))
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%s is not iterable", TypeName(v))
	}

	records := make([]*Dict, 0, len(items))
	for i, item := range items {
		d, ok := AsMapping(item)
		if !ok {
			return nil, fmt.Errorf("entry %d is %s, not a mapping", i, TypeName(item))
		}
		records = append(records, d)
	}
	return records, nil
}
