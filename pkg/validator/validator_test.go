package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLogin(t *testing.T) {
	errs := ValidateLogin("clerk@gso.gov", "secret")
	assert.False(t, errs.HasErrors())

	errs = ValidateLogin("", "")
	assert.Equal(t, "Email is required", errs["email"])
	assert.Equal(t, "Password is required", errs["password"])

	errs = ValidateLogin("not-an-email", "secret")
	assert.Equal(t, "Invalid email address", errs["email"])
}

func TestValidateSendMessage(t *testing.T) {
	errs := ValidateSendMessage("u2", "hello")
	assert.False(t, errs.HasErrors())

	errs = ValidateSendMessage(" ", "  ")
	assert.Equal(t, "Receiver is required", errs["receiverId"])
	assert.Equal(t, "Message text is required", errs["text"])

	errs = ValidateSendMessage("u2", strings.Repeat("x", 4001))
	assert.Equal(t, "Message is too long", errs["text"])
}

func TestValidateServiceRequest(t *testing.T) {
	errs := ValidateServiceRequest("Broken projector", "IT")
	assert.False(t, errs.HasErrors())

	errs = ValidateServiceRequest("", "")
	assert.Equal(t, "Title is required", errs["title"])
	assert.Equal(t, "Division is required", errs["division"])
}
