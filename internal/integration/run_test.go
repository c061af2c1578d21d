package integration

import (
	"testing"
)

func TestRunDryRun(t *testing.T) {
	t.Parallel()
	binaryPath := getBenchctlBinary(t)

	t.Run("prints the composed command without launching anything", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.Run("run --dry-run --subset verified --split test --slice :50 --workers 2").
			OutputContains("Would run: sweagent run-batch").
			OutputContains("--num_workers 2").
			OutputContains("--instances.subset verified").
			OutputContains("--instances.split test").
			OutputContains("--instances.slice :50").
			OutputContains("With environment: AZURE_OPENAI_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT, GITHUB_TOKEN").
			OutputNotContains("shell-azure-key-0123456789").
			FileAbsent("outputs")
	})

	t.Run("named run lands under the outputs directory", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.Run("run --dry-run --name smoke").
			OutputContains("outputs/smoke")
	})

	t.Run("name conflicts with an explicit output dir", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.RunExpectError("run --dry-run --name smoke --output-dir elsewhere").
			OutputContains("--name conflicts")
	})

	t.Run("rejects a backwards slice", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.RunExpectError("run --dry-run --slice 50:10").
			OutputContains("exceeds")
	})

	t.Run("write-config saves the merged manifest", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.Run("run --dry-run --subset verified --write-config bench.yaml").
			OutputContains("Merged run manifest written to bench.yaml").
			FileContains("bench.yaml", "subset: verified")
	})

	t.Run("manifest drives the run and flags override it", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.Run("run --dry-run --subset full --workers 8 --write-config bench.yaml")

		sh.Run("run --dry-run --config bench.yaml").
			OutputContains("--instances.subset full").
			OutputContains("--num_workers 8")

		sh.Run("run --dry-run --config bench.yaml --workers 3").
			OutputContains("--instances.subset full").
			OutputContains("--num_workers 3")
	})
}

func TestRunsLedger(t *testing.T) {
	t.Parallel()
	binaryPath := getBenchctlBinary(t)

	t.Run("empty ledger suggests launching a run", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.Run("runs list").
			OutputContains("No runs recorded yet")
	})

	t.Run("show rejects an unknown run id", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)
		sh.Init()

		sh.RunExpectError("runs show deadbeef")
	})
}

func TestGuide(t *testing.T) {
	t.Parallel()
	binaryPath := getBenchctlBinary(t)

	t.Run("guide renders the operator handbook", func(t *testing.T) {
		t.Parallel()
		sh := NewTestShell(t, binaryPath)

		sh.Run("guide").
			OutputContains("docker").
			OutputContains("Troubleshooting")
	})
}
