package config

import "testing"

func TestDexNodeGRPCVarRoundTrip(t *testing.T) {
	got := DexNodeGRPCVar("AbBCD_e-Fg-H-i")
	want := "ABBCD_E_FG_H_I__NODE_GRPC"
	if got != want {
		t.Fatalf("DexNodeGRPCVar = %q, want %q", got, want)
	}
}

func TestEnvBoolTruthySet(t *testing.T) {
	for _, v := range []string{"1", "y", "Y", "yes", "true"} {
		t.Setenv("DEBUG_LOGGING", v)
		if !EnvBool("DEBUG_LOGGING") {
			t.Errorf("expected %q to be truthy", v)
		}
	}
	for _, v := range []string{"0", "no", "false", ""} {
		t.Setenv("DEBUG_LOGGING", v)
		if EnvBool("DEBUG_LOGGING") {
			t.Errorf("expected %q to be falsy", v)
		}
	}
}

func TestRequireEnvMissing(t *testing.T) {
	if _, err := RequireEnv("CHAIN_OPS_DEFINITELY_UNSET_VAR"); err == nil {
		t.Fatal("expected an error for a missing required variable")
	}
}
