package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInverseLabelsAreSymmetric(t *testing.T) {
	for _, l := range AssociationLabels() {
		inv, ok := l.Inverse()
		assert.True(t, ok, "label %s has no inverse", l)
		back, ok := inv.Inverse()
		assert.True(t, ok)
		assert.Equal(t, l, back, "inverse of %s is not symmetric", l)
		assert.NotEqual(t, l, inv)
	}
}

func TestLabelValidity(t *testing.T) {
	assert.True(t, LabelCatalog.Valid())
	assert.True(t, LabelRecipientToken.Valid())
	assert.False(t, ObjectLabel("workspace").Valid())
	assert.True(t, AssocShareContains.Valid())
	assert.False(t, AssociationLabel("shared_as").Valid())
}

func TestObjectNames(t *testing.T) {
	o := Object{Name: []string{"c1", "s1", "t1"}}
	assert.Equal(t, "c1.s1.t1", o.FullName())
	assert.Equal(t, "t1", o.Leaf())

	var props struct {
		Comment string `json:"comment"`
	}
	assert.NoError(t, o.UnmarshalProperties(&props))
	o.Properties = []byte(`{"comment":"hello"}`)
	assert.NoError(t, o.UnmarshalProperties(&props))
	assert.Equal(t, "hello", props.Comment)
}
