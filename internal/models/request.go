package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinChatTimeout = 10  // seconds
	MaxChatTimeout = 600 // seconds
	MaxHistory     = 50
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ChatTurn is one prior message of the conversation.
type ChatTurn struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content"`
}

// ChatRequest for POST /api/v1/chat
type ChatRequest struct {
	Input       string     `json:"input"`
	ChatHistory []ChatTurn `json:"chat_history,omitempty" validate:"max=50,dive"`
	Timeout     int        `json:"timeout"` // seconds
}

func (r *ChatRequest) SetDefaults(defaultTimeout int) {
	if r.Timeout == 0 {
		r.Timeout = defaultTimeout
	}
	if r.Timeout < MinChatTimeout {
		r.Timeout = MinChatTimeout
	}
	if r.Timeout > MaxChatTimeout {
		r.Timeout = MaxChatTimeout
	}
}

// Validate checks the request structure. The input text itself is screened by
// the prompt validator.
func (r *ChatRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "ChatRequest.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "max":
		return fmt.Errorf("%s too long (max %s)", field, fe.Param())
	default:
		return fmt.Errorf("%s failed %q validation", field, fe.Tag())
	}
}
