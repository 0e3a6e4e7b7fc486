package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Name string `validate:"required,max=5"`
	IP   string `validate:"required"`
}

func TestValidateStructured_Valid(t *testing.T) {
	v := New()

	errs := v.ValidateStructured(&sampleRequest{Name: "r1", IP: "10.0.0.1"})
	assert.Nil(t, errs)
}

func TestValidateStructured_RequiredFields(t *testing.T) {
	v := New()

	errs := v.ValidateStructured(&sampleRequest{})
	assert.Equal(t, "This field is required", errs["Name"])
	assert.Equal(t, "This field is required", errs["IP"])
}

func TestValidateStructured_MaxLength(t *testing.T) {
	v := New()

	errs := v.ValidateStructured(&sampleRequest{Name: "toolong", IP: "10.0.0.1"})
	assert.Equal(t, "Must be at most 5 characters", errs["Name"])
	assert.NotContains(t, errs, "IP")
}
