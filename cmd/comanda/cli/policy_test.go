package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPolicy(args ...string) (int, string, string) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := PolicyCommand(args, PolicyOptions{Stdout: stdout, Stderr: stderr})
	return code, stdout.String(), stderr.String()
}

func TestPolicyMatrixHuman(t *testing.T) {
	code, out, _ := runPolicy("matrix")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"PERMISSION", "ADMIN", "GERENTE", "CAIXA", "GARCOM"}, strings.Fields(lines[0]))

	var inventory []string
	for _, line := range lines {
		if strings.HasPrefix(line, "inventory.view ") {
			inventory = strings.Fields(line)
		}
	}
	assert.Equal(t, []string{"inventory.view", "x", "x", "-", "-"}, inventory)
}

func TestPolicyMatrixJSON(t *testing.T) {
	code, out, _ := runPolicy("matrix", "--json")
	require.Equal(t, 0, code)
	var matrix policyMatrix
	require.NoError(t, json.Unmarshal([]byte(out), &matrix))
	assert.Equal(t, []string{"admin", "gerente", "caixa", "garcom"}, matrix.Roles)
	assert.Equal(t, []string{"admin", "gerente", "caixa", "garcom"}, matrix.Permissions["dashboard.view"])
}

func TestPolicyCheck(t *testing.T) {
	code, out, _ := runPolicy("check", "--role", "gerente", "--permission", "inventory.view")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "allowed")

	code, out, _ = runPolicy("check", "--role", "garcom", "--permission", "inventory.view")
	assert.Equal(t, 10, code)
	assert.Contains(t, out, "granted to: admin, gerente")

	code, out, _ = runPolicy("check", "--role", "admin", "--permission", "kitchen.view", "--json")
	assert.Equal(t, 10, code)
	var decision policyDecision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.False(t, decision.Registered)
	assert.False(t, decision.Allowed)
}

func TestPolicyUsageErrors(t *testing.T) {
	code, _, errOut := runPolicy()
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage")

	code, _, errOut = runPolicy("check", "--role", "chef", "--permission", "pdv.view")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown role")

	code, _, _ = runPolicy("explain")
	assert.Equal(t, 2, code)
}
