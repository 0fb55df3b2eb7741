package validator

import (
	"bytes"
	"encoding/json"
)

// Nullable はJSONの「キーなし」「null」「値あり」を区別する。
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// キーがあるときだけ呼ばれる
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// nullならnil
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
