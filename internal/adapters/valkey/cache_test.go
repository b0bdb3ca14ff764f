package valkey

import (
	"errors"
	"testing"
)

func TestIsNilReply_OtherErrors(t *testing.T) {
	if IsNilReply(nil) {
		t.Error("nil error is not a nil reply")
	}
	if IsNilReply(errors.New("connection refused")) {
		t.Error("generic errors are not nil replies")
	}
}
