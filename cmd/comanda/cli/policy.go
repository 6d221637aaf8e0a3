package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/comanda-erp/comanda/internal/rbac"
)

// PolicyOptions defines the streams used by the policy command.
type PolicyOptions struct {
	Registry *rbac.Registry
	Stdout   io.Writer
	Stderr   io.Writer
}

type policyMatrix struct {
	Roles       []string            `json:"roles"`
	Permissions map[string][]string `json:"permissions"`
}

type policyDecision struct {
	Role       string `json:"role"`
	Permission string `json:"permission"`
	Registered bool   `json:"registered"`
	Allowed    bool   `json:"allowed"`
}

// PolicyCommand runs `policy matrix` or `policy check` and returns the exit
// code. A denied check exits with 10 so scripts can branch on it.
func PolicyCommand(args []string, opts PolicyOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Registry == nil {
		opts.Registry = rbac.DefaultRegistry()
	}
	if len(args) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "usage: comanda policy <matrix|check> [flags]")
		return 2
	}
	switch args[0] {
	case "matrix":
		return policyMatrixCommand(args[1:], opts)
	case "check":
		return policyCheckCommand(args[1:], opts)
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "policy: unknown subcommand %q\n", args[0])
		return 2
	}
}

func policyMatrixCommand(args []string, opts PolicyOptions) int {
	flags := pflag.NewFlagSet("matrix", pflag.ContinueOnError)
	flags.SetOutput(opts.Stderr)
	jsonOutput := flags.Bool("json", false, "output as JSON")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	roles := rbac.AllRoles()
	keys := opts.Registry.Keys()
	if *jsonOutput {
		matrix := policyMatrix{Permissions: make(map[string][]string, len(keys))}
		for _, role := range roles {
			matrix.Roles = append(matrix.Roles, role.String())
		}
		for _, key := range keys {
			granted := []string{}
			for _, role := range opts.Registry.RolesFor(key) {
				granted = append(granted, role.String())
			}
			matrix.Permissions[key.String()] = granted
		}
		if err := json.NewEncoder(opts.Stdout).Encode(matrix); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "policy matrix: encode json: %v\n", err)
			return 1
		}
		return 0
	}

	w := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	header := []string{"PERMISSION"}
	for _, role := range roles {
		header = append(header, strings.ToUpper(role.String()))
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, key := range keys {
		row := []string{key.String()}
		for _, role := range roles {
			mark := "-"
			if opts.Registry.Grants(key, role) {
				mark = "x"
			}
			row = append(row, mark)
		}
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "policy matrix: %v\n", err)
		return 1
	}
	return 0
}

func policyCheckCommand(args []string, opts PolicyOptions) int {
	flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
	flags.SetOutput(opts.Stderr)
	roleName := flags.String("role", "", "role to evaluate (admin, gerente, caixa, garcom)")
	permission := flags.String("permission", "", "permission key, e.g. inventory.view")
	jsonOutput := flags.Bool("json", false, "output as JSON")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	role, err := rbac.ParseRole(strings.TrimSpace(*roleName))
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "policy check: --role: %v\n", err)
		return 1
	}
	if *permission == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "policy check: --permission is required")
		return 1
	}

	key := rbac.PermissionKey(*permission)
	decision := policyDecision{
		Role:       role.String(),
		Permission: key.String(),
		Registered: opts.Registry.Contains(key),
		Allowed:    opts.Registry.Grants(key, role),
	}
	if *jsonOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(decision); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "policy check: encode json: %v\n", err)
			return 1
		}
	} else {
		renderDecision(opts.Stdout, decision, opts.Registry.RolesFor(key))
	}
	if !decision.Allowed {
		return 10
	}
	return 0
}

func renderDecision(w io.Writer, d policyDecision, granted []rbac.Role) {
	if !d.Registered {
		_, _ = fmt.Fprintf(w, "%s is not a registered permission; denied for every role\n", d.Permission)
		return
	}
	verdict := "denied"
	if d.Allowed {
		verdict = "allowed"
	}
	names := make([]string, len(granted))
	for i, role := range granted {
		names[i] = role.String()
	}
	_, _ = fmt.Fprintf(w, "%s -> %s: %s (granted to: %s)\n", d.Role, d.Permission, verdict, strings.Join(names, ", "))
}
