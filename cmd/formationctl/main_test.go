package main

import (
	"bytes"
	"testing"
)

func TestCommandsValidateArgsBeforeConnecting(t *testing.T) {
	cases := [][]string{
		{"generate", "rec1"},
		{"bundle"},
		{"vault", "create"},
		{"audit", "tail"},
	}
	for _, args := range cases {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		// Arg and required-flag checks fail before RunE opens the database.
		if err := root.Execute(); err == nil {
			t.Fatalf("%v: want usage error", args)
		}
	}
}

func TestBundleFlags(t *testing.T) {
	cmd := bundleCmd()
	if err := cmd.ParseFlags([]string{"--kinds", "bylaws,stock-ledger", "--no-crm"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	kinds, _ := cmd.Flags().GetStringSlice("kinds")
	if len(kinds) != 2 || kinds[1] != "stock-ledger" {
		t.Fatalf("kinds: got=%q", kinds)
	}
	if noCRM, _ := cmd.Flags().GetBool("no-crm"); !noCRM {
		t.Fatalf("no-crm: want=true")
	}
}
