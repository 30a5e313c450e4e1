package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"spelling-hive/internal/room"
	"spelling-hive/internal/words"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength   = 20
	maxUserIDLength = 128
	maxChatLength   = 280
	maxAnswerLength = 64
	maxRoomPlayers  = 16
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
			_, err := validateUserID(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
			return words.KnownDifficulty(strings.ToLower(strings.TrimSpace(fl.Field().String())))
		})
		_ = engine.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
			switch room.Visibility(fl.Field().String()) {
			case "", room.Public, room.Private:
				return true
			}
			return false
		})
	})
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateUserID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", errors.New("userId is required")
	}
	if len(trimmed) > maxUserIDLength {
		return "", fmt.Errorf("userId must be %d characters or fewer", maxUserIDLength)
	}
	for _, r := range trimmed {
		if r > 127 || unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", errors.New("userId contains unsupported characters")
		}
	}
	return trimmed, nil
}

// validateChat is looser than names: any printable text is allowed.
func validateChat(text string) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", errors.New("message is required")
	}
	if len(trimmed) > maxChatLength {
		return "", fmt.Errorf("message must be %d characters or fewer", maxChatLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", errors.New("message contains unsupported characters")
		}
	}
	return trimmed, nil
}

func validateAnswer(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > maxAnswerLength {
		return "", fmt.Errorf("answer must be %d characters or fewer", maxAnswerLength)
	}
	return trimmed, nil
}

// validateInput keeps partial typing as typed, including an empty string
// that clears the spectator mirror. Overlong input is cut to the answer
// limit instead of rejected.
func validateInput(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", errors.New("input must be valid UTF-8")
	}
	if utf8.RuneCountInString(text) > maxAnswerLength {
		text = string([]rune(text)[:maxAnswerLength])
	}
	return text, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '.', '!', '?':
			continue
		default:
			return false
		}
	}
	return true
}
