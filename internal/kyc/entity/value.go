package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind 动态值的类型标签
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value 表单 schema 与提交数据中的任意 JSON 节点（string | number | bool | list | map）。
// 零值为 null。
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	obj  map[string]Value
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func List(items ...Value) Value { return Value{kind: KindList, list: items} }
func Map(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindMap, obj: fields}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }
func (v Value) AsMap() (map[string]Value, bool) { return v.obj, v.kind == KindMap }

// Get 取 map 字段，不存在或非 map 时返回 null
func (v Value) Get(key string) Value {
	if v.kind != KindMap {
		return Value{}
	}
	return v.obj[key]
}

// Text 返回字符串值，非字符串时返回空串
func (v Value) Text() string {
	return v.str
}

// Keys map 键按字典序
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case 'n':
		*v = Value{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '[':
		var items []Value
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []Value{}
		}
		*v = List(items...)
	case '{':
		var fields map[string]Value
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		*v = Map(fields)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n)
	}
	return nil
}

// Value 实现 driver.Valuer，以 jsonb 存储
func (v Value) Value() (driver.Value, error) {
	if v.kind == KindNull {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *Value) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = Value{}
		return nil
	case []byte:
		return v.UnmarshalJSON(s)
	case string:
		return v.UnmarshalJSON([]byte(s))
	default:
		return fmt.Errorf("entity.Value: cannot scan %T", src)
	}
}

// FormData 提交表单数据，顶层为 section key → 值
type FormData map[string]Value

func (d FormData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]Value(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *FormData) Scan(src interface{}) error {
	var raw []byte
	switch s := src.(type) {
	case nil:
		*d = FormData{}
		return nil
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		return fmt.Errorf("entity.FormData: cannot scan %T", src)
	}
	m := map[string]Value{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*d = m
	return nil
}
