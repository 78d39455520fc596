package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

func TestGetExitCode(t *testing.T) {
	if got := GetExitCode(NewExitError(ExitCommandError, "boom")); got != ExitCommandError {
		t.Errorf("GetExitCode(ExitError{2}) = %d, want 2", got)
	}
	if got := GetExitCode(errors.New("plain")); got != ExitFailure {
		t.Errorf("GetExitCode(plain error) = %d, want 1", got)
	}

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner"))
	if got := GetExitCode(wrapped); got != ExitFailure {
		t.Errorf("GetExitCode(wrapped) = %d, want 1", got)
	}
}

func TestExitError_Message(t *testing.T) {
	e := WrapExitError(ExitCommandError, "failed to open database", errors.New("no such file"))
	want := "failed to open database: no such file"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
	if !errors.Is(e, e.Err) {
		t.Error("ExitError should unwrap to its cause")
	}
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	if err := f.Error("UNKNOWN_ENTITY", "entity not found", nil); err != nil {
		t.Fatalf("Error() failed: %v", err)
	}

	var resp CLIResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if resp.Status != "error" || resp.Error == nil || resp.Error.Code != "UNKNOWN_ENTITY" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestFailOp_SurfacesTypedCode(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	cause := &state.ApplyError{Code: state.ErrCodeDuplicateEntity, Message: "entity id already exists"}
	err := failOp(f, "add-entity", cause)

	if GetExitCode(err) != ExitFailure {
		t.Errorf("failOp exit code = %d, want 1", GetExitCode(err))
	}

	var resp CLIResponse
	if jsonErr := json.Unmarshal(buf.Bytes(), &resp); jsonErr != nil {
		t.Fatalf("output is not valid JSON: %v", jsonErr)
	}
	if resp.Error == nil || resp.Error.Code != string(state.ErrCodeDuplicateEntity) {
		t.Errorf("error code not surfaced: %+v", resp)
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	var out, diag bytes.Buffer

	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &diag, Verbose: true}
	f.VerboseLog("replaying %d facts", 7)
	if out.Len() != 0 {
		t.Error("verbose output must not mix into the JSON stream")
	}
	if diag.String() != "replaying 7 facts\n" {
		t.Errorf("diagnostic output = %q", diag.String())
	}

	quiet := &OutputFormatter{Format: "text", Writer: &out}
	quiet.VerboseLog("hidden")
	if out.Len() != 0 {
		t.Error("non-verbose formatter should stay silent")
	}
}
