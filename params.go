package strata

import "reflect"

// KV is a single ordered key/value pair. A []KV payload preserves insertion
// order through normalization.
type KV struct {
	Key   string
	Value any
}

// Params is the parameter carrier passed between services, repositories, and
// filter/mask hooks. It normalizes heterogeneous caller input into two
// key-ordered maps: a data payload and an options bag.
//
// Accepted input shapes for either map: nil, map[string]any, []KV, a struct
// or *struct (fields read via their db tags), or another *Params.
// Unrecognized shapes normalize to an empty map. Construction cannot fail.
type Params struct {
	dataKeys []string
	data     map[string]any
	optKeys  []string
	options  map[string]any
}

// NewParams builds a carrier from a payload and an options bag.
// Both maps are always defined after construction, even for nil input.
func NewParams(data, options any) *Params {
	p := &Params{
		data:    make(map[string]any),
		options: make(map[string]any),
	}
	p.dataKeys, p.data = normalizeValues(data, true)
	p.optKeys, p.options = normalizeValues(options, false)
	return p
}

// normalizeValues flattens one of the supported input shapes into an ordered
// key list plus a lookup map. fromData selects which half of a *Params input
// is copied.
func normalizeValues(in any, fromData bool) ([]string, map[string]any) {
	keys := []string{}
	m := make(map[string]any)

	put := func(k string, v any) {
		if _, seen := m[k]; !seen {
			keys = append(keys, k)
		}
		m[k] = v
	}

	switch v := in.(type) {
	case nil:
		return keys, m
	case *Params:
		if v == nil {
			return keys, m
		}
		src, srcKeys := v.data, v.dataKeys
		if !fromData {
			src, srcKeys = v.options, v.optKeys
		}
		for _, k := range srcKeys {
			put(k, src[k])
		}
		return keys, m
	case map[string]any:
		for k, val := range v {
			put(k, val)
		}
		return keys, m
	case []KV:
		for _, kv := range v {
			put(kv.Key, kv.Value)
		}
		return keys, m
	}

	// Generic object: a struct (or pointer to one) read via db tags.
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return keys, m
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return keys, m
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		put(name, rv.Field(i).Interface())
	}
	return keys, m
}

// Get returns the value stored under key in the data map, or nil.
func (p *Params) Get(key string) any {
	return p.data[key]
}

// GetAll returns the whole data map, or nil when it is empty.
func (p *Params) GetAll() map[string]any {
	if len(p.data) == 0 {
		return nil
	}
	return p.data
}

// Has reports whether key exists in the data map.
func (p *Params) Has(key string) bool {
	_, ok := p.data[key]
	return ok
}

// Data returns the data keys in insertion order.
func (p *Params) Data() []string {
	return p.dataKeys
}

// Set stores a single data value, overwriting any previous value for key.
func (p *Params) Set(key string, value any) *Params {
	if _, seen := p.data[key]; !seen {
		p.dataKeys = append(p.dataKeys, key)
	}
	p.data[key] = value
	return p
}

// SetMap merges a whole map into the data payload. Later writes win.
func (p *Params) SetMap(values map[string]any) *Params {
	for k, v := range values {
		p.Set(k, v)
	}
	return p
}

// Option returns the value stored under key in the options bag, or nil.
func (p *Params) Option(key string) any {
	return p.options[key]
}

// OptionAll returns the whole options map, or nil when it is empty.
func (p *Params) OptionAll() map[string]any {
	if len(p.options) == 0 {
		return nil
	}
	return p.options
}

// HasOption reports whether key exists in the options bag.
func (p *Params) HasOption(key string) bool {
	_, ok := p.options[key]
	return ok
}

// Options returns the option keys in insertion order.
func (p *Params) Options() []string {
	return p.optKeys
}

// SetOption stores a single option value, overwriting any previous value.
func (p *Params) SetOption(key string, value any) *Params {
	if _, seen := p.options[key]; !seen {
		p.optKeys = append(p.optKeys, key)
	}
	p.options[key] = value
	return p
}

// SetOptionMap merges a whole map into the options bag. Later writes win.
func (p *Params) SetOptionMap(values map[string]any) *Params {
	for k, v := range values {
		p.SetOption(k, v)
	}
	return p
}

// OptionInt reads an option as an int, falling back to def when the option
// is absent or not numeric.
func (p *Params) OptionInt(key string, def int) int {
	switch v := p.options[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return def
	}
}

// emptyParams substitutes a usable carrier when a verb receives nil.
func emptyParams(p *Params) *Params {
	if p == nil {
		return NewParams(nil, nil)
	}
	return p
}
