package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/thresholdtest"
	"github.com/iov-one/threshold/thresholdtest/assert"
	"github.com/stretchr/testify/require"
)

// run executes thresholdd with given arguments against the wallet kept in
// home and returns what was printed.
func run(t *testing.T, home string, args ...string) ([]byte, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := NewRootCmd(&out, &logs)
	cmd.SetArgs(append([]string{"--home", home, "--log_level", "none"}, args...))
	err := cmd.Execute()
	return out.Bytes(), err
}

func hexAddr(a threshold.Address) string {
	return fmt.Sprintf("%x", []byte(a))
}

func TestWalletLifecycle(t *testing.T) {
	home := t.TempDir()
	ps := thresholdtest.NewPrincipals(3)
	a, b, c := hexAddr(ps[0]), hexAddr(ps[1]), hexAddr(ps[2])
	target := thresholdtest.NewAddress()

	_, err := run(t, home, "principals")
	assert.IsErr(t, errors.ErrConfiguration, err)

	out, err := run(t, home, "init", "--threshold", "2", a, b, c)
	require.NoError(t, err)
	var wallet walletView
	require.NoError(t, json.Unmarshal(out, &wallet))
	assert.Equal(t, ps, wallet.Principals)
	assert.Equal(t, 2, wallet.Threshold)

	_, err = run(t, home, "init", "--threshold", "1", a)
	assert.IsErr(t, errors.ErrConfiguration, err)

	_, err = run(t, home, "--as", a, "deposit", "500")
	require.NoError(t, err)

	out, err = run(t, home, "--as", a, "submit", hexAddr(target), "100", "cafe")
	require.NoError(t, err)
	var submitted map[string]uint64
	require.NoError(t, json.Unmarshal(out, &submitted))
	assert.Equal(t, uint64(0), submitted["id"])

	_, err = run(t, home, "--as", hexAddr(thresholdtest.NewAddress()), "confirm", "0")
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = run(t, home, "--as", a, "confirm", "0")
	require.NoError(t, err)
	_, err = run(t, home, "--as", c, "execute", "0")
	assert.IsErr(t, errors.ErrInsufficientConfirmations, err)
	assert.Equal(t, 8, exitCode(err))
	_, err = run(t, home, "--as", b, "confirm", "0")
	require.NoError(t, err)
	_, err = run(t, home, "--as", a, "execute", "0")
	require.NoError(t, err)
	_, err = run(t, home, "--as", c, "confirm", "0")
	assert.IsErr(t, errors.ErrAlreadyExecuted, err)

	out, err = run(t, home, "show", "0")
	require.NoError(t, err)
	var shown struct {
		Executed    bool                `json:"executed"`
		Count       uint32              `json:"confirmation_count"`
		Payload     []byte              `json:"payload"`
		ConfirmedBy []threshold.Address `json:"confirmed_by"`
	}
	require.NoError(t, json.Unmarshal(out, &shown))
	assert.Equal(t, true, shown.Executed)
	assert.Equal(t, uint32(2), shown.Count)
	assert.Equal(t, []byte{0xca, 0xfe}, shown.Payload)
	assert.Equal(t, []threshold.Address{ps[0], ps[1]}, shown.ConfirmedBy)

	out, err = run(t, home, "principals")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &wallet))
	assert.Equal(t, uint64(400), wallet.Balance)

	out, err = run(t, home, "list", "--state", "pending")
	require.NoError(t, err)
	var ids []uint64
	require.NoError(t, json.Unmarshal(out, &ids))
	assert.Equal(t, []uint64{}, ids)

	out, err = run(t, home, "events", "--from", "2")
	require.NoError(t, err)
	var records []struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(out, &records))
	assert.Equal(t, 3, len(records))
	assert.Equal(t, "execute", records[2].Kind)

	_, err = run(t, home, "verify")
	require.NoError(t, err)
}

func TestInputErrors(t *testing.T) {
	home := t.TempDir()
	ps := thresholdtest.NewPrincipals(1)
	_, err := run(t, home, "init", hexAddr(ps[0]))
	require.NoError(t, err)

	cases := map[string][]string{
		"missing caller": {"confirm", "0"},
		"bad id":         {"--as", hexAddr(ps[0]), "confirm", "x"},
		"bad payload":    {"--as", hexAddr(ps[0]), "submit", hexAddr(ps[0]), "1", "zz"},
		"bad state":      {"list", "--state", "cancelled"},
		"zero deposit":   {"--as", hexAddr(ps[0]), "deposit", "0"},
	}
	for testName, args := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := run(t, home, args...)
			if err == nil {
				t.Fatal("want an error")
			}
			assert.Equal(t, true, errors.ErrInput.Is(err) || errors.ErrAmount.Is(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(fmt.Errorf("unknown")))
	assert.Equal(t, 7, exitCode(errors.Wrap(errors.ErrAlreadyExecuted, "id 1")))
	assert.Equal(t, 1, exitCode(errors.ErrPanic))
}

func TestReport(t *testing.T) {
	cases := map[string]struct {
		err      error
		wantOut  string
		wantCode int
	}{
		"rejection": {
			err:      errors.Wrap(errors.ErrNotConfirmed, "proposal 2"),
			wantOut:  "Error: proposal 2: not confirmed\n",
			wantCode: 6,
		},
		"panic in action": {
			err: errors.WithCause(
				errors.Wrap(errors.ErrExecutionFailed, "proposal 1"),
				errors.Wrap(errors.ErrPanic, "secret at 0xc000010000"),
			),
			wantOut:  "Error: panic\n",
			wantCode: 9,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tc.wantCode, report(&buf, tc.err))
			assert.Equal(t, tc.wantOut, buf.String())
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, threshold.Version()+"\n", string(out))
}

func TestMetricsTextfile(t *testing.T) {
	t.Setenv("THRESHOLD_METRICS_ENABLED", "true")
	home := t.TempDir()
	p := thresholdtest.NewAddress()
	_, err := run(t, home, "init", hexAddr(p))
	require.NoError(t, err)
	_, err = run(t, home, "--as", hexAddr(p), "deposit", "10")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(home, "metrics.prom"))
	require.NoError(t, err)
	text := string(raw)
	assert.Equal(t, true, strings.Contains(text, `threshold_operations_total{op="deposit",result="ok"} 1`))
}
