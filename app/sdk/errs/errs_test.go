package errs_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
)

type body struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, e *errs.Error) body {
	t.Helper()

	data, ct, err := e.Encode()
	if err != nil {
		t.Fatalf("encode: %s", err)
	}

	if ct != "application/json" {
		t.Fatalf("got content type %q", ct)
	}

	var b body
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("unmarshal: %s", err)
	}

	return b
}

func Test_Codes(t *testing.T) {
	tests := []struct {
		code   errs.ErrCode
		value  int
		status int
	}{
		{errs.NotFound, 1001, http.StatusNotFound},
		{errs.ServiceNotFound, 1002, http.StatusNotFound},
		{errs.RoomNotFound, 1003, http.StatusNotFound},
		{errs.Unauthenticated, 1101, http.StatusUnauthorized},
		{errs.PermissionDenied, 1102, http.StatusForbidden},
		{errs.InvalidArgument, 1201, http.StatusBadRequest},
		{errs.Aborted, 1201, http.StatusConflict},
		{errs.Internal, 2001, http.StatusInternalServerError},
		{errs.Unavailable, 2001, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			e := errs.New(tt.code, errors.New("boom"))

			if e.HTTPStatus() != tt.status {
				t.Errorf("got status %d, want %d", e.HTTPStatus(), tt.status)
			}

			b := decode(t, e)
			if b.Error.Code != tt.value {
				t.Errorf("got code %d, want %d", b.Error.Code, tt.value)
			}

			if b.Error.Message != "boom" {
				t.Errorf("got message %q", b.Error.Message)
			}
		})
	}
}

func Test_InternalOnlyLogHidesMessage(t *testing.T) {
	e := errs.Errorf(errs.InternalOnlyLog, "PANIC [%v]", "secret detail")

	b := decode(t, e)
	if b.Error.Message != "internal" {
		t.Errorf("Message should be generic, got %q", b.Error.Message)
	}

	if e.Error() != "PANIC [secret detail]" {
		t.Errorf("Error() should keep the detail for logs, got %q", e.Error())
	}

	if e.FileName == "" || e.FuncName == "" {
		t.Errorf("Source location should be captured")
	}
}

func Test_GetError(t *testing.T) {
	e := errs.New(errs.RoomNotFound, errors.New("room not found"))
	wrapped := fmt.Errorf("handler: %w", e)

	if !errs.IsError(wrapped) {
		t.Fatalf("Should find the error through wrapping")
	}

	if diff := cmp.Diff(e, errs.GetError(wrapped)); diff != "" {
		t.Errorf("GetError mismatch (-want +got):\n%s", diff)
	}

	if errs.GetError(errors.New("plain")) != nil {
		t.Errorf("Plain errors carry no app error")
	}
}

func Test_Deadline(t *testing.T) {
	err := fmt.Errorf("query: %w", context.DeadlineExceeded)
	if got := errs.Deadline(err, errs.Internal); got != errs.Unavailable {
		t.Errorf("Deadline should map to unavailable, got %s", got)
	}

	if got := errs.Deadline(errors.New("x"), errs.Internal); got != errs.Internal {
		t.Errorf("Should fall back, got %s", got)
	}
}

type newRoom struct {
	Name             string `json:"name" validate:"required"`
	ParticipantLimit int    `json:"participantLimit" validate:"gte=-1"`
}

func Test_Check(t *testing.T) {
	err := errs.Check(newRoom{ParticipantLimit: -2})
	if err == nil {
		t.Fatal("Should fail validation")
	}

	var fe errs.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("Should return field errors, got %T", err)
	}

	fields := fe.Fields()
	if _, ok := fields["name"]; !ok {
		t.Errorf("Should report the json field name, got %v", fields)
	}

	if _, ok := fields["participantLimit"]; !ok {
		t.Errorf("Should report participantLimit, got %v", fields)
	}

	if err := errs.Check(newRoom{Name: "r"}); err != nil {
		t.Errorf("Should pass: %s", err)
	}
}
