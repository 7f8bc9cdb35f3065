package byplay

import (
	"context"
	"testing"
)

func TestRegisterAndLookup(t *testing.T) {
	defer Unregister()

	called := false
	Register("unit-test-job", func(ctx context.Context, jc *JobContext, args []any) error {
		called = true
		return nil
	})

	if !IsRegistered("unit-test-job") {
		t.Fatal("expected job to be registered")
	}

	fn, err := lookup("unit-test-job")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if err := fn(context.Background(), &JobContext{}, nil); err != nil {
		t.Fatalf("calling looked-up func: %v", err)
	}
	if !called {
		t.Fatal("registered func was not invoked")
	}
}

func TestLookupUnregisteredIsPreconditionFailure(t *testing.T) {
	defer Unregister()

	_, err := lookup("does-not-exist")
	if err == nil {
		t.Fatal("expected error for unregistered job identifier")
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	defer Unregister()

	Register("dup", func(context.Context, *JobContext, []any) error { return nil })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("dup", func(context.Context, *JobContext, []any) error { return nil })
}

func TestRegisterFuncTypedArgs(t *testing.T) {
	defer Unregister()

	type payload struct {
		Name string `json:"name"`
	}

	var gotName string
	var gotCount int
	RegisterFunc("typed-job", func(ctx context.Context, jc *JobContext, p payload, count int) error {
		gotName = p.Name
		gotCount = count
		return nil
	})

	fn, err := lookup("typed-job")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	encoded, err := encodeArgs([]any{payload{Name: "ada"}, 3})
	if err != nil {
		t.Fatalf("encodeArgs: %v", err)
	}
	args, err := decodeArgs(encoded)
	if err != nil {
		t.Fatalf("decodeArgs: %v", err)
	}
	if err := fn(context.Background(), &JobContext{}, args); err != nil {
		t.Fatalf("calling RegisterFunc callable: %v", err)
	}
	if gotName != "ada" || gotCount != 3 {
		t.Fatalf("got name=%q count=%d, want name=ada count=3", gotName, gotCount)
	}
}
