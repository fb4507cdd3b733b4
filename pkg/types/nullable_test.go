package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patch struct {
	Comment    NullableString `json:"comment"`
	Owner      NullableString `json:"owner"`
	Properties NullableMap    `json:"properties"`
}

func TestNullableFields(t *testing.T) {
	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"comment":null,"properties":{"a":"b"}}`), &p))

	assert.True(t, p.Comment.IsSet())
	assert.True(t, p.Comment.IsNil())
	assert.Equal(t, "", p.Comment.Apply("old"))

	assert.False(t, p.Owner.IsSet())
	assert.Equal(t, "alice", p.Owner.Apply("alice"))

	assert.True(t, p.Properties.IsSet())
	assert.Equal(t, map[string]string{"a": "b"}, p.Properties.Apply(nil))

	p = patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"comment":"new","properties":{}}`), &p))
	assert.Equal(t, "new", p.Comment.Apply("old"))
	assert.Nil(t, p.Properties.Apply(map[string]string{"x": "y"}))
}

func TestNullableMarshal(t *testing.T) {
	out, err := json.Marshal(patch{Comment: NewNullableString("c"), Properties: NewNullableMap(map[string]string{"k": "v"})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"comment":"c","owner":null,"properties":{"k":"v"}}`, string(out))

	var ns NullableString
	assert.Error(t, json.Unmarshal([]byte(`12`), &ns))
}
