package query

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Key identifies a cacheable read: a resource name plus an ordered list of
// parameter values. Keys built from equal inputs compare equal with ==.
type Key struct {
	resource string
	params   string
}

// Param is one named key component. Build it with P or Opt.
type Param struct {
	name    string
	value   string
	present bool
}

// P is a required key parameter. It is always part of the key.
func P(name string, v any) Param {
	s, _ := formatValue(v)
	return Param{name: name, value: s, present: true}
}

// Opt is an optional key parameter. Nil pointers and empty values are
// left out of the key so that "no filter" has a single identity.
func Opt(name string, v any) Param {
	s, ok := formatValue(v)
	return Param{name: name, value: s, present: ok && s != ""}
}

// NewKey builds the key for resource with params in the given order.
func NewKey(resource string, params ...Param) Key {
	return Key{resource: resource, params: encodeParams(params)}
}

// Resource returns the resource name of the key.
func (k Key) Resource() string { return k.resource }

// String returns the canonical form "resource?name=value&...".
func (k Key) String() string {
	if k.params == "" {
		return k.resource
	}
	return k.resource + "?" + k.params
}

func (k Key) segments() []string {
	if k.params == "" {
		return nil
	}
	return strings.Split(k.params, "&")
}

// Filter selects cache keys for invalidation.
type Filter struct {
	resource string
	params   []string
	exact    bool
	key      Key
}

// Match selects every key of resource whose parameters include all of params.
// Optional params that are absent are ignored.
func Match(resource string, params ...Param) Filter {
	enc := encodeParams(params)
	var segs []string
	if enc != "" {
		segs = strings.Split(enc, "&")
	}
	return Filter{resource: resource, params: segs}
}

// Exact selects exactly one key.
func Exact(k Key) Filter {
	return Filter{resource: k.resource, exact: true, key: k}
}

// Resource returns the resource the filter targets.
func (f Filter) Resource() string { return f.resource }

// Matches reports whether k is selected by f.
func (f Filter) Matches(k Key) bool {
	if f.exact {
		return f.key == k
	}
	if f.resource != k.resource {
		return false
	}
	if len(f.params) == 0 {
		return true
	}
	have := k.segments()
	for _, want := range f.params {
		found := false
		for _, h := range have {
			if h == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	if f.exact {
		return f.key.String()
	}
	if len(f.params) == 0 {
		return f.resource + "*"
	}
	return f.resource + "*?" + strings.Join(f.params, "&")
}

func encodeParams(params []Param) string {
	var b strings.Builder
	for _, p := range params {
		if !p.present {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// formatValue renders v as a key component. ok is false for nil values.
func formatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	case *int:
		if x == nil {
			return "", false
		}
		return strconv.Itoa(*x), true
	case *string:
		if x == nil {
			return "", false
		}
		return *x, true
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", false
		}
		return x.String(), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface()), true
}
