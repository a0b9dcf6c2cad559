package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type campaignForm struct {
	Title     string  `validate:"required,min=1,max=255"`
	Type      string  `validate:"required,oneof=GENERAL CATEGORY PRODUCT PACKAGE"`
	Percent   float64 `validate:"gte=0,lte=100"`
	CartTotal int64   `validate:"required,gt=0"`
}

func validForm() campaignForm {
	return campaignForm{Title: "Yaz İndirimi", Type: "GENERAL", Percent: 10, CartTotal: 1000}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(validForm()))
}

func TestValidate_RequiredField(t *testing.T) {
	form := validForm()
	form.Title = ""

	err := Validate(form)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["Title"])
}

func TestValidate_OneOf(t *testing.T) {
	form := validForm()
	form.Type = "FLASH"

	err := Validate(form)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Type"], "must be one of")
}

func TestValidate_Range(t *testing.T) {
	form := validForm()
	form.Percent = 150

	err := Validate(form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Percent")
}

func TestValidate_MultipleFailures(t *testing.T) {
	err := Validate(campaignForm{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Title")
	assert.Contains(t, fields, "Type")
	assert.Contains(t, fields, "CartTotal")
}
