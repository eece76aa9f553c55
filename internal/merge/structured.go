package merge

import (
	"fmt"

	"github.com/anthropics/jin/internal/jinerr"
)

// deletedMarker is a sentinel returned by mergeValue to tell the parent
// object merge to drop the key entirely (RFC 7396: null deletes).
type deletedMarker struct{}

// mergeValue merges two decoded structured values, low (lower
// precedence) and high (higher precedence), per spec §4.4's
// RFC-7396-generalised rules. path/layerLow/layerHigh are carried
// through purely to label any StructuralConflictError.
func mergeValue(low, high interface{}, path, layerLow, layerHigh string) (interface{}, error) {
	if high == nil {
		return deletedMarker{}, nil
	}
	if low == nil {
		return high, nil
	}

	lowMap, lowIsMap := asMap(low)
	highMap, highIsMap := asMap(high)
	if lowIsMap && highIsMap {
		return mergeMaps(lowMap, highMap, path, layerLow, layerHigh)
	}

	lowArr, lowIsArr := low.([]interface{})
	highArr, highIsArr := high.([]interface{})
	if lowIsArr && highIsArr {
		return mergeArrays(lowArr, highArr, path, layerLow, layerHigh)
	}

	// Scalar vs scalar: precedence overwrite.
	if !lowIsMap && !highIsMap && !lowIsArr && !highIsArr {
		return high, nil
	}

	return nil, &jinerr.StructuralConflictError{
		Path:      path,
		LayerLow:  layerLow,
		LayerHigh: layerHigh,
		Message:   fmt.Sprintf("%T in one layer vs %T in another, with no null-delete between them", low, high),
	}
}

// asMap reports whether v is a map[string]interface{}, the map shape
// the codecs decode to. Other map types are not converted.
func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func mergeMaps(low, high map[string]interface{}, path, layerLow, layerHigh string) (interface{}, error) {
	out := make(map[string]interface{}, len(low)+len(high))
	for k, v := range low {
		out[k] = v
	}
	for k, hv := range high {
		lv := low[k]
		childPath := path + "/" + k
		merged, err := mergeValue(lv, hv, childPath, layerLow, layerHigh)
		if err != nil {
			return nil, err
		}
		if _, isDeleted := merged.(deletedMarker); isDeleted {
			delete(out, k)
			continue
		}
		out[k] = merged
	}
	return out, nil
}

// arrayKeyField returns the key field ("id" preferred over "name")
// shared by every element of arr, or "" if arr's elements aren't all
// objects or don't share one of those two fields.
func arrayKeyField(arr []interface{}) string {
	if len(arr) == 0 {
		return ""
	}
	for _, candidate := range []string{"id", "name"} {
		allHave := true
		for _, el := range arr {
			m, ok := asMap(el)
			if !ok {
				return ""
			}
			if _, present := m[candidate]; !present {
				allHave = false
				break
			}
		}
		if allHave {
			return candidate
		}
	}
	return ""
}

func mergeArrays(low, high []interface{}, path, layerLow, layerHigh string) (interface{}, error) {
	keyField := arrayKeyField(low)
	if keyField == "" || keyField != arrayKeyField(high) {
		// Arrays aren't both all-objects sharing a common key field:
		// the higher-precedence array fully replaces the lower.
		return high, nil
	}

	lowByKey := make(map[interface{}]int, len(low))
	for i, el := range low {
		m, _ := asMap(el)
		lowByKey[m[keyField]] = i
	}

	result := make([]interface{}, len(low))
	copy(result, low)

	for _, hel := range high {
		hm, _ := asMap(hel)
		key := hm[keyField]
		if idx, present := lowByKey[key]; present {
			merged, err := mergeValue(result[idx], hel, fmt.Sprintf("%s[%v]", path, key), layerLow, layerHigh)
			if err != nil {
				return nil, err
			}
			if _, isDeleted := merged.(deletedMarker); isDeleted {
				result[idx] = nil // array element deletion is not contractually defined; keep position as null
				continue
			}
			result[idx] = merged
		} else {
			result = append(result, hel)
		}
	}
	return result, nil
}

// MergeStructured folds an ordered (ascending precedence) list of
// decoded layer values into one, returning a StructuralConflictError
// if any pairwise merge hits incompatible types with no null-delete
// between them. layerRefs must be the same length as values and name
// each value's originating layer for error messages.
func MergeStructured(values []interface{}, layerRefs []string) (interface{}, error) {
	if len(values) == 0 {
		return map[string]interface{}{}, nil
	}
	acc := values[0]
	accLayer := layerRefs[0]
	for i := 1; i < len(values); i++ {
		merged, err := mergeValue(acc, values[i], "", accLayer, layerRefs[i])
		if err != nil {
			return nil, err
		}
		if _, isDeleted := merged.(deletedMarker); isDeleted {
			acc = nil
		} else {
			acc = merged
		}
		accLayer = layerRefs[i]
	}
	if acc == nil {
		return map[string]interface{}{}, nil
	}
	return acc, nil
}
