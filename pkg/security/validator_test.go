package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Username        string `json:"username" validate:"required,min=3,max=30,username"`
	Email           string `json:"email" validate:"required,emailaddr"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,startsletter"`
}

type postForm struct {
	Title  string   `json:"title" validate:"required,noleadingspecial"`
	Images []string `json:"-" validate:"max=3,dive,url"`
}

func validSignup() signupForm {
	return signupForm{
		Username:        "jane_doe",
		Email:           "jane@example.com",
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
		FirstName:       "Jane",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Fields
}

func TestValidateSignup(t *testing.T) {
	assert.NoError(t, Validate(validSignup()))

	tests := []struct {
		name  string
		edit  func(f *signupForm)
		field string
	}{
		{"short username", func(f *signupForm) { f.Username = "ab" }, "username"},
		{"username symbols", func(f *signupForm) { f.Username = "jane-doe" }, "username"},
		{"bad email", func(f *signupForm) { f.Email = "jane@" }, "email"},
		{"weak password", func(f *signupForm) { f.Password, f.ConfirmPassword = "password", "password" }, "password"},
		{"password bad char", func(f *signupForm) { f.Password, f.ConfirmPassword = "Secret1!#", "Secret1!#" }, "password"},
		{"mismatch", func(f *signupForm) { f.ConfirmPassword = "Secret2!" }, "confirm_password"},
		{"name digit", func(f *signupForm) { f.FirstName = "1Jane" }, "first_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validSignup()
			tt.edit(&f)
			fields := fieldsOf(t, Validate(f))
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestNoLeadingSpecial(t *testing.T) {
	assert.NoError(t, Validate(postForm{Title: "Hello #world"}))

	for _, title := range []string{"#hello", "_x", "[draft]", "\"quoted\"", ".dot"} {
		fields := fieldsOf(t, Validate(postForm{Title: title}))
		assert.Equal(t, "title cannot start with a special character", fields["title"], title)
	}

	fields := fieldsOf(t, Validate(postForm{}))
	assert.Equal(t, "title is required", fields["title"])
}

func TestImagesLimit(t *testing.T) {
	ok := postForm{Title: "t", Images: []string{"https://a/1.png", "https://a/2.png", "https://a/3.png"}}
	assert.NoError(t, Validate(ok))

	tooMany := ok
	tooMany.Images = append(tooMany.Images, "https://a/4.png")
	fields := fieldsOf(t, Validate(tooMany))
	assert.Equal(t, "Images allows at most 3 items", fields["Images"])
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "validation failed: a: one; b: two", err.Error())
}
