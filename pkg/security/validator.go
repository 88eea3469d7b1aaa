package security

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// 自定义校验规则名
const (
	TagNoLeadingSpecial = "noleadingspecial"
	TagUsername         = "username"
	TagStrongPassword   = "strongpassword"
	TagStartsWithLetter = "startsletter"
	TagEmailAddress     = "emailaddr"
)

// leadingSpecialChars 标题和正文不能以这些字符开头
const leadingSpecialChars = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// passwordSpecialChars 密码允许且必须包含其一的特殊字符
const passwordSpecialChars = "@$!%*?&"

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

var (
	defaultOnce     sync.Once
	defaultValidate *validator.Validate
)

// NewValidator 创建注册了全部自定义规则的校验器
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息里使用 json 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation(TagNoLeadingSpecial, ValidateNoLeadingSpecial)
	_ = v.RegisterValidation(TagUsername, ValidateUsername)
	_ = v.RegisterValidation(TagStrongPassword, ValidateStrongPassword)
	_ = v.RegisterValidation(TagStartsWithLetter, ValidateStartsWithLetter)
	_ = v.RegisterValidation(TagEmailAddress, ValidateEmail)
	return v
}

// Default 进程内共享的校验器，validator.Validate 并发安全且会缓存结构体信息
func Default() *validator.Validate {
	defaultOnce.Do(func() {
		defaultValidate = NewValidator()
	})
	return defaultValidate
}

// ValidateNoLeadingSpecial 首字符不能是特殊字符；空串交给 required 处理
func ValidateNoLeadingSpecial(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return !strings.ContainsRune(leadingSpecialChars, []rune(s)[0])
}

// ValidateUsername 只允许字母、数字和下划线
func ValidateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

// ValidateEmail 邮箱格式
func ValidateEmail(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

// ValidateStrongPassword 至少 8 位，包含大小写字母、数字和特殊字符，且不含其他字符
func ValidateStrongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// ValidateStartsWithLetter 首字符必须是英文字母
func ValidateStartsWithLetter(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}

// ValidationError 字段级校验失败，Fields 为 字段名 -> 提示
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate 校验结构体，失败时返回 *ValidationError
func Validate(v any) error {
	err := Default().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, ok := out.Fields[fe.Field()]; ok {
			continue
		}
		out.Fields[fe.Field()] = Message(fe)
	}
	return out
}

// Message 把单个字段错误翻译成面向用户的提示
func Message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s allows at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case TagNoLeadingSpecial:
		return fmt.Sprintf("%s cannot start with a special character", field)
	case TagUsername:
		return "Username can only contain letters, numbers, and underscores"
	case TagEmailAddress:
		return "Invalid email address"
	case TagStrongPassword:
		return "Password must be at least 8 characters and include uppercase, lowercase, a number and a special character (@$!%*?&)"
	case TagStartsWithLetter:
		return fmt.Sprintf("%s must start with a letter", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
