package discovery

import (
	"bytes"
	"encoding/json/jsontext"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, write func(o *Object)) (string, error) {
	t.Helper()

	var b bytes.Buffer
	o := Open(jsontext.NewEncoder(&b))
	write(o)
	err := o.Close()

	return strings.TrimSpace(b.String()), err
}

func TestObject(t *testing.T) {
	u, err := url.Parse("https://example.com/support")
	require.NoError(t, err)

	for _, tt := range []struct {
		name    string
		write   func(o *Object)
		want    string
		wantErr error
	}{
		{
			name:  "empty",
			write: func(*Object) {},
			want:  `{}`,
		},
		{
			name: "zero values are skipped",
			write: func(o *Object) {
				Set(o, FieldIcon, "")
				Set(o, FieldBrightnessScale, uint(0))
				Set(o, FieldRetain, false)
				List[string](o, FieldEffectList, nil)
				o.Topic(FieldStateTopic, "")
			},
			want: `{}`,
		},
		{
			name: "fields",
			write: func(o *Object) {
				Require(o, FieldPlatform, "light")
				o.Nullable(FieldName, "")
				Set(o, FieldBrightnessScale, uint(255))
				List(o, FieldEffectList, []string{"lightScene_Sunrise"})
				o.RequireTopic(FieldStateTopic, "goveemqtt/desk/state")
			},
			want: `{"p":"light","name":null,"bri_scl":255,"fx_list":["lightScene_Sunrise"],"stat_t":"goveemqtt/desk/state"}`,
		},
		{
			name: "urls as strings",
			write: func(o *Object) {
				Embed(o, "url", u)
			},
			want: `{"url":"https://example.com/support"}`,
		},
		{
			name: "inline is sorted",
			write: func(o *Object) {
				Inline(o, map[string]int{"b": 2, "a": 1, "c": 3})
			},
			want: `{"a":1,"b":2,"c":3}`,
		},
		{
			name: "required value",
			write: func(o *Object) {
				Require(o, FieldUniqueID, "")
			},
			wantErr: ErrValueRequired,
		},
		{
			name: "required topic",
			write: func(o *Object) {
				o.RequireTopic(FieldCommandTopic, "")
			},
			wantErr: ErrTopicRequired,
		},
		{
			name: "required embed",
			write: func(o *Object) {
				Embed[url.URL](o, FieldOrigin, nil)
			},
			wantErr: ErrValueRequired,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := render(t, tt.write)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestObjectStopsAfterFailure(t *testing.T) {
	var b bytes.Buffer
	o := Open(jsontext.NewEncoder(&b))

	Require(o, FieldUniqueID, "")
	Set(o, FieldIcon, "mdi:lightbulb")

	err := o.Close()
	require.ErrorIs(t, err, ErrValueRequired)
	assert.Contains(t, err.Error(), FieldUniqueID)
	assert.NotContains(t, b.String(), "mdi:lightbulb")
}

func TestWithin(t *testing.T) {
	var b bytes.Buffer
	e := jsontext.NewEncoder(&b)
	require.NoError(t, e.WriteToken(jsontext.BeginObject))

	o := Within(e)
	Set(o, FieldIcon, "mdi:lightbulb")
	require.NoError(t, o.Err())

	require.NoError(t, e.WriteToken(jsontext.EndObject))
	assert.JSONEq(t, `{"ic":"mdi:lightbulb"}`, b.String())
}

func TestIDSanitizer(t *testing.T) {
	assert.Equal(t, "AA__BB__CC", IDSanitizer.Replace("AA:BB:CC"))
	assert.Equal(t, "a__b__c", IDSanitizer.Replace("a/b c"))
}
