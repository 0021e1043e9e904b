package rule

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/notesphere/pkg/internal/model"
)

// registerDomainRules 注册业务相关的规则：
//
//	role     角色取值 student/admin/guest
//	rating   评分区间 [0, 5]
//	filetype 允许的笔记文件扩展名
func registerDomainRules(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return f.Name
	})

	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || model.Role(s).Valid()
	})

	_ = v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f >= 0 && f <= model.MaxRating
	})

	_ = v.RegisterValidation("filetype", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseFileType(fl.Field().String())
		return ok
	})
}

// Errors 把校验错误整理为 字段 -> 提示.
// 非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := make(ValidationErrors, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = describe(fe)
	}

	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "role":
		return "must be one of [student admin guest]"
	case "rating":
		return fmt.Sprintf("must be between 0 and %g", model.MaxRating)
	case "filetype":
		return "must be pdf, doc or docx"
	default:
		return fmt.Sprintf("failed on %q", fe.Tag())
	}
}
