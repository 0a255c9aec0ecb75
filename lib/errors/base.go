package errors

import (
	"encoding/json"
	"sort"
)

// Error is a coded error. Package level values are templates; attach run
// specific details to a copy made with Clone.
type Error struct {
	Code    uint                   `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func NewError(code uint, message string) *Error {
	return &Error{Code: code, Message: message, Data: map[string]interface{}{}}
}

func (o *Error) Serialize() (b []byte, err error) {
	d := map[string]interface{}{}
	for k, v := range o.Data {
		if e, ok := v.(error); ok {
			v = e.Error()
		}
		d[k] = v
	}

	b, err = json.Marshal(struct {
		Code    uint                   `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data,omitempty"`
	}{o.Code, o.Message, d})
	return
}

func (o *Error) Error() string {
	b, err := o.Serialize()
	if err != nil {
		return o.Message
	}
	return string(b)
}

func (o *Error) SetData(k string, v interface{}) *Error {
	o.Data[k] = v

	return o
}

// Keys returns the data keys in sorted order.
func (o *Error) Keys() []string {
	var keys []string
	for k := range o.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o *Error) Clone() *Error {
	var new Error
	new = *o

	new.Data = map[string]interface{}{}
	if len(o.Data) > 0 {
		for k, v := range o.Data {
			new.Data[k] = v
		}
	}

	return &new
}

// Is matches by code, so a clone carrying data still matches its template.
func (o *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return o.Code == t.Code
}

// Unwrap exposes an error stored under the "error" key.
func (o *Error) Unwrap() error {
	if e, ok := o.Data["error"].(error); ok {
		return e
	}
	return nil
}
