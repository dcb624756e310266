package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskingHandlerMasksCredentialPair(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Info("submitting credentials",
		"email", "rootagency@gmail.com",
		"password", "Gravity@1234",
	)

	// Both halves of the pair identify the account; neither may reach
	// the log output.
	out := buf.String()
	if strings.Contains(out, "Gravity@1234") {
		t.Errorf("password leaked into log output: %s", out)
	}
	if strings.Contains(out, "rootagency@gmail.com") {
		t.Errorf("email leaked into log output: %s", out)
	}
	if !strings.Contains(out, MaskValue) {
		t.Errorf("expected masked value in output: %s", out)
	}
}

func TestMaskingHandlerMasksCompositeKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Info("toggle check", "new_password_value", "secret123!", "client_secret", "abc")

	out := buf.String()
	if strings.Contains(out, "secret123!") || strings.Contains(out, "=abc") {
		t.Errorf("sensitive value leaked: %s", out)
	}
}

func TestMaskingHandlerMasksGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Info("run config", slog.Group("target",
		slog.String("baseURL", "https://marketeers-stage-ui.ollkom.com"),
		slog.String("password", "Gravity@1234"),
	))

	out := buf.String()
	if strings.Contains(out, "Gravity@1234") {
		t.Errorf("grouped password leaked: %s", out)
	}
	if !strings.Contains(out, "marketeers-stage-ui") {
		t.Errorf("non-sensitive group attr should survive: %s", out)
	}
}

func TestMaskingHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false).With("password", "Gravity@1234")

	logger.Info("attempt")

	if strings.Contains(buf.String(), "Gravity@1234") {
		t.Errorf("With-attached password leaked: %s", buf.String())
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, true)
	logger.Debug("probing selector", "selector", "input[type=email]")

	if !strings.Contains(buf.String(), "probing selector") {
		t.Error("expected debug record with verbose logger")
	}

	buf.Reset()
	quiet := NewLogger(&buf, false)
	quiet.Debug("probing selector")
	if buf.Len() != 0 {
		t.Error("did not expect debug record without verbose")
	}
}
