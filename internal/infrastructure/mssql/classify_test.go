package mssql

import (
	"context"
	"errors"
	"testing"

	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/pfp-attendance/engine/internal/storeerr"
)

func TestClassify_Nil(t *testing.T) {
	if classify(nil, "op") != nil {
		t.Fatal("classify(nil) should return nil")
	}
}

func TestClassify_ContextCanceledIsTransient(t *testing.T) {
	err := classify(context.Canceled, "op")
	if !storeerr.IsTransient(err) {
		t.Fatalf("want transient, got %v", storeerr.KindOf(err))
	}
}

func TestClassify_DeadlockVictimIsTransient(t *testing.T) {
	err := classify(mssqldb.Error{Number: errDeadlockVictim, Message: "deadlock victim"}, "op")
	if !storeerr.IsTransient(err) {
		t.Fatalf("want transient, got %v", storeerr.KindOf(err))
	}
}

func TestClassify_LoginFailedIsPermanent(t *testing.T) {
	err := classify(mssqldb.Error{Number: errLoginFailed, Message: "login failed"}, "op")
	if !storeerr.IsPermanent(err) {
		t.Fatalf("want permanent, got %v", storeerr.KindOf(err))
	}
}

func TestClassify_UnknownSQLErrorDefaultsToPermanent(t *testing.T) {
	err := classify(mssqldb.Error{Number: 9999, Message: "some other error"}, "op")
	if !storeerr.IsPermanent(err) {
		t.Fatalf("want permanent, got %v", storeerr.KindOf(err))
	}
}

func TestClassify_TextPatternFallbackCatchesTimeout(t *testing.T) {
	err := classify(errors.New("i/o timeout talking to server"), "op")
	if !storeerr.IsTransient(err) {
		t.Fatalf("want transient, got %v", storeerr.KindOf(err))
	}
}

func TestClassify_UnrecognizedErrorDefaultsToPermanent(t *testing.T) {
	err := classify(errors.New("something entirely unrecognized"), "op")
	if !storeerr.IsPermanent(err) {
		t.Fatalf("want permanent, got %v", storeerr.KindOf(err))
	}
}
