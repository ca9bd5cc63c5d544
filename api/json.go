package api

import (
	"io"
	"time"

	"github.com/bytedance/sonic"
)

// decodeBody decodes a JSON request body, rejecting unknown fields and
// oversized payloads.
func decodeBody(body io.Reader, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(body, requestBodyMaxSize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// nullableTime distinguishes an absent dueDate field from an explicit null:
// absent leaves the stored value alone, null clears it.
type nullableTime struct {
	set   bool
	value *time.Time
}

func (n *nullableTime) UnmarshalJSON(data []byte) error {
	n.set = true
	if string(data) == "null" {
		n.value = nil
		return nil
	}
	var t time.Time
	if err := sonic.Unmarshal(data, &t); err != nil {
		return err
	}
	n.value = &t
	return nil
}
