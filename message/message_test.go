package message

import (
	"testing"

	"solo-rpc/protocol"
	"solo-rpc/rpcerror"
)

func TestFail(t *testing.T) {
	resp := Fail(protocol.StatusInternal, rpcerror.KindUnknownProcedure, "no handler for procedure(9)")

	if resp.Status != protocol.StatusInternal {
		t.Errorf("Status = %d, want %d", resp.Status, protocol.StatusInternal)
	}

	body, err := rpcerror.ParseBody(resp.Payload)
	if err != nil {
		t.Fatalf("payload should be a parseable description: %v", err)
	}
	if body.Kind != rpcerror.KindUnknownProcedure {
		t.Errorf("Kind = %q, want %q", body.Kind, rpcerror.KindUnknownProcedure)
	}
	if body.Message != "no handler for procedure(9)" {
		t.Errorf("Message = %q, want %q", body.Message, "no handler for procedure(9)")
	}
}
