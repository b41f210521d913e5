// Package validation はリクエスト内容の検証を提供する。
// go-playground/validatorのタグで制約を宣言し、
// 失敗時はJSONフィールド名をキーにしたmodel.APIErrorに変換する。
package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/lifelog/internal/model"
)

// Validator は構造体の検証を行う。並行利用可能。
type Validator struct {
	v *validator.Validate
}

// New はカスタムタグを登録したValidatorを生成する。
//   - theme: light, dark, system
//   - goalstatus: active, completed, paused, abandoned
//   - mood: 定義済みの気分または空文字列
//   - hhmm: 24時間表記のHH:MM
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterAlias("theme", "oneof=light dark system")
	v.RegisterAlias("goalstatus", "oneof=active completed paused abandoned")

	// 登録失敗は組み込みタグ名との衝突のみで、起動時に検出すべき不具合
	if err := v.RegisterValidation("mood", func(fl validator.FieldLevel) bool {
		return model.Mood(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 5 {
			return false
		}
		_, err := time.Parse("15:04", s)
		return err == nil
	}); err != nil {
		panic(err)
	}

	return &Validator{v: v}
}

// Struct は構造体を検証する。失敗時はVALIDATION_FAILEDの*model.APIErrorを返す。
func (v *Validator) Struct(s interface{}) error {
	if err := v.v.Struct(s); err != nil {
		return model.NewValidationError(ToDetails(err))
	}
	return nil
}

// ToDetails は検証・JSONデコードのエラーをフィールド名とメッセージのマップに変換する。
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) {
		return map[string]string{"payload": "JSONの形式が正しくありません。"}
	}
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "payload"
		}
		return map[string]string{field: "型が正しくありません。"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fieldKey(fe)] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "リクエスト内容が正しくありません。"}
}

// fieldKey はトップレベル構造体名を除いたフィールドパスを返す。
// 例: DecisionInput.tags[2] → tags[2]
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "必須項目です。"
	case "min":
		if isNumberKind(fe.Kind()) {
			return param + "以上で入力してください。"
		}
		if fe.Kind() == reflect.Slice {
			return param + "件以上で入力してください。"
		}
		return param + "文字以上で入力してください。"
	case "max":
		if isNumberKind(fe.Kind()) {
			return param + "以下で入力してください。"
		}
		if fe.Kind() == reflect.Slice {
			return param + "件以下で入力してください。"
		}
		return param + "文字以下で入力してください。"
	case "uuid":
		return "有効なIDを指定してください。"
	case "email":
		return "有効なメールアドレスを入力してください。"
	case "alphanum":
		return "英数字のみ使用できます。"
	case "theme":
		return "light, dark, system のいずれかを指定してください。"
	case "goalstatus":
		return "active, completed, paused, abandoned のいずれかを指定してください。"
	case "mood":
		return "calm, content, uncertain, anxious, hopeful, grateful のいずれかを指定してください。"
	case "hhmm":
		return "HH:MM形式で入力してください。"
	default:
		return "値が正しくありません。"
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
