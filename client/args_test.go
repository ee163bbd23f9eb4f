package client

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifyArg(t *testing.T) {
	objectID := "0x" + strings.Repeat("ab", 32)

	tests := []struct {
		name string
		in   interface{}
		want argKind
	}{
		{"object id string", objectID, argObjectRef},
		{"short hex string", "0x2", argText},
		{"plain text", "Hi", argText},
		{"hex-looking but 65 chars", "0x" + strings.Repeat("a", 63), argText},
		{"byte slice", []byte{1, 2}, argBytes},
		{"int", 42, argU64},
		{"uint64", uint64(42), argU64},
		{"uint8", uint8(7), argU64},
		{"bool", true, argBool},
		{"float", 1.5, argOpaque},
		{"map", map[string]interface{}{}, argOpaque},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyArg(tt.in); got != tt.want {
				t.Errorf("classifyArg(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarshalCallArgs(t *testing.T) {
	objectID := "0x" + strings.Repeat("ab", 32)

	got := marshalCallArgs([]interface{}{
		objectID,
		"Hi",
		[]byte("Hi"),
		uint64(18_446_744_073_709_551_615),
		42,
		true,
	})

	want := []interface{}{
		objectID,
		"Hi",
		[]interface{}{72, 105},
		"18446744073709551615",
		"42",
		true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("marshalCallArgs mismatch:\n got: %#v\nwant: %#v", got, want)
	}
}

func TestMarshalCallArgs_Empty(t *testing.T) {
	got := marshalCallArgs(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
