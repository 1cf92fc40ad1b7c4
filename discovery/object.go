package discovery

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
)

var (
	// ErrValueRequired is recorded when a required field holds its zero value.
	ErrValueRequired = errors.New("value is required")
	// ErrTopicRequired is recorded when a required topic is empty, usually because its mqtt value is nil.
	ErrTopicRequired = errors.New("topic is required")

	// Marshalers adapt standard library types to the discovery schema.
	Marshalers = json.JoinMarshalers(
		json.MarshalToFunc(func(e *jsontext.Encoder, u *url.URL) error {
			return e.WriteToken(jsontext.String(u.String()))
		}),
	)
)

// Object writes the fields of one discovery JSON object. Writes after the first failure are skipped and the failure is
// reported by Err and Close, so fields can be written unconditionally.
type Object struct {
	e   *jsontext.Encoder
	err error
}

// Open starts a new object on e.
func Open(e *jsontext.Encoder) *Object {
	o := &Object{e: e}
	o.token(jsontext.BeginObject)

	return o
}

// Within writes fields into an object that was already started on e.
func Within(e *jsontext.Encoder) *Object {
	return &Object{e: e}
}

// Close ends the object and returns the first failure.
func (o *Object) Close() error {
	o.token(jsontext.EndObject)
	return o.err
}

func (o *Object) Err() error {
	return o.err
}

func (o *Object) fail(k string, err error) {
	if o.err == nil {
		o.err = fmt.Errorf("%s: %w", k, err)
	}
}

func (o *Object) token(t jsontext.Token) {
	if o.err == nil {
		o.err = o.e.WriteToken(t)
	}
}

func (o *Object) value(v any) {
	if o.err == nil {
		o.err = json.MarshalEncode(o.e, v, json.WithMarshalers(Marshalers))
	}
}

// Key writes a field name. The caller writes the value.
func (o *Object) Key(k string) {
	o.token(jsontext.String(k))
}

// Nullable writes s, or null when s is empty.
func (o *Object) Nullable(k, s string) {
	o.Key(k)
	if s == "" {
		o.token(jsontext.Null)
		return
	}

	o.token(jsontext.String(s))
}

// Topic writes a topic field unless topic is empty.
func (o *Object) Topic(k, topic string) {
	if topic == "" {
		return
	}

	o.Key(k)
	o.token(jsontext.String(topic))
}

// RequireTopic writes a topic field and records ErrTopicRequired if it is empty.
func (o *Object) RequireTopic(k, topic string) {
	if topic == "" {
		o.fail(k, ErrTopicRequired)
		return
	}

	o.Topic(k, topic)
}

// Set writes v unless it is the zero value of T.
func Set[T comparable](o *Object, k string, v T) {
	var zero T
	if v == zero {
		return
	}

	o.Key(k)
	o.value(v)
}

// Require writes v and records ErrValueRequired if it is the zero value of T.
func Require[T comparable](o *Object, k string, v T) {
	var zero T
	if v == zero {
		o.fail(k, ErrValueRequired)
		return
	}

	Set(o, k, v)
}

// Embed writes v as a nested value and records ErrValueRequired if it is nil.
func Embed[T any](o *Object, k string, v *T) {
	if v == nil {
		o.fail(k, ErrValueRequired)
		return
	}

	o.Key(k)
	o.value(v)
}

// List writes v unless it is empty.
func List[T any](o *Object, k string, v []T) {
	if len(v) == 0 {
		return
	}

	o.Key(k)
	o.value(v)
}

// Inline writes every entry of m as a field of o, in key order so retained payloads only change with their content.
func Inline[T any, M ~map[string]T](o *Object, m M) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		o.Key(k)
		o.value(m[k])
	}
}
