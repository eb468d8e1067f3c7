package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/wagnerlima/mozichem-hub/internal/catalog"
	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/registry"
)

const co2Content = `# REFERENCES
## CUSTOM-REF-1
### general-data
TABLE-ID: 1
DESCRIPTION: CO2 critical data
STRUCTURE:
  COLUMNS: [No., Name, Formula, State, Critical-Temperature, Critical-Pressure, Acentric-Factor]
  SYMBOL: [None, None, None, None, Tc, Pc, AcFa]
  UNIT: [None, None, None, None, K, MPa, None]
  CONVERSION: [None, None, None, None, 1, 1, 1]
VALUES:
  - [1, 'carbon dioxide', 'CO2', 'g', 310.0, 7.0, 0.25]
EXTERNAL-REFERENCES: None
`

// setupIntegration publishes a catalog over an in-memory transport and returns
// a connected client session.
func setupIntegration(t *testing.T, name string) (*mcp.ClientSession, func()) {
	t.Helper()

	c, err := catalog.New(name, zerolog.Nop())
	if err != nil {
		t.Fatalf("catalog.New(%s): %v", name, err)
	}
	srv, err := c.Publish()
	if err != nil {
		c.Stop()
		t.Fatalf("publish: %v", err)
	}

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	if _, err := srv.Connect(ctx, serverTransport, nil); err != nil {
		c.Stop()
		t.Fatalf("server connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		c.Stop()
		t.Fatalf("client connect: %v", err)
	}

	cleanup := func() {
		session.Close()
		c.Stop()
	}
	return session, cleanup
}

// callTool calls a tool and decodes its JSON result.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(tc.Text), &out); err != nil {
		t.Fatalf("CallTool(%s): decode %q: %v", name, tc.Text, err)
	}
	return out
}

// callToolExpectError calls a tool, expects IsError, and returns the failure.
func callToolExpectError(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) errs.Failure {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): protocol error: %v", name, err)
	}
	tc := result.Content[0].(*mcp.TextContent)
	if !result.IsError {
		t.Fatalf("CallTool(%s): expected error but got success: %s", name, tc.Text)
	}
	var env map[string]errs.Failure
	if err := json.Unmarshal([]byte(tc.Text), &env); err != nil {
		t.Fatalf("CallTool(%s): decode failure %q: %v", name, tc.Text, err)
	}
	return env["error"]
}

func number(t *testing.T, m map[string]any, key string) float64 {
	t.Helper()
	v, ok := m[key].(float64)
	if !ok {
		t.Fatalf("%s: expected number, got %T (%v)", key, m[key], m[key])
	}
	return v
}

func co2Args() map[string]any {
	return map[string]any{
		"component":   map[string]any{"name": "carbon dioxide", "formula": "CO2", "state": "g"},
		"temperature": map[string]any{"value": 300.1, "unit": "K"},
		"pressure":    map[string]any{"value": 9.99, "unit": "bar"},
		"eos_model":   "SRK",
	}
}

func TestIntegration_ListTools(t *testing.T) {
	for _, info := range registry.Catalogs() {
		session, cleanup := setupIntegration(t, info.Name)

		result, err := session.ListTools(context.Background(), nil)
		if err != nil {
			cleanup()
			t.Fatal(err)
		}
		descriptors, err := registry.Descriptor(info.Name)
		if err != nil {
			cleanup()
			t.Fatal(err)
		}

		toolNames := make(map[string]bool)
		for _, tool := range result.Tools {
			toolNames[tool.Name] = true
		}
		for _, d := range descriptors {
			if !toolNames[d.Name] {
				t.Errorf("%s: missing tool %s", info.Name, d.Name)
			}
		}
		if len(result.Tools) != len(descriptors) {
			t.Errorf("%s: expected %d tools, got %d", info.Name, len(descriptors), len(result.Tools))
		}
		cleanup()
	}
}

func TestIntegration_GasFugacity(t *testing.T) {
	session, cleanup := setupIntegration(t, "eos-models-mcp")
	defer cleanup()

	out := callTool(t, session, "calc_gas_component_fugacity", co2Args())

	if out["phase"] != "g" {
		t.Errorf("phase = %v, want g", out["phase"])
	}
	phi := number(t, out, "fugacity_coefficient")
	if math.Abs(phi-0.95219) > 1e-4 {
		t.Errorf("fugacity_coefficient = %v, want ~0.95219", phi)
	}
	z := number(t, out, "compressibility_factor")
	if math.Abs(z-0.95019) > 1e-4 {
		t.Errorf("compressibility_factor = %v, want ~0.95019", z)
	}
	f := number(t, out, "fugacity")
	if math.Abs(f-phi*9.99e5) > 1e-3 {
		t.Errorf("fugacity = %v, want phi*P = %v", f, phi*9.99e5)
	}
}

func TestIntegration_BubblePressure(t *testing.T) {
	session, cleanup := setupIntegration(t, "flash-calculations-mcp")
	defer cleanup()

	out := callTool(t, session, "calc_bubble_pressure_ideal_vapor_ideal_liquid", map[string]any{
		"components": []any{
			map[string]any{"name": "benzene", "formula": "C6H6", "state": "l", "mole_fraction": 0.26},
			map[string]any{"name": "toluene", "formula": "C7H8", "state": "l", "mole_fraction": 0.74},
		},
		"temperature": map[string]any{"value": 80, "unit": "C"},
	})

	if p := number(t, out, "pressure"); math.Abs(p-54901) > 10 {
		t.Errorf("bubble pressure = %v, want ~54901 Pa", p)
	}
	y, ok := out["vapor_mole_fraction"].(map[string]any)
	if !ok {
		t.Fatalf("vapor_mole_fraction: expected object, got %T", out["vapor_mole_fraction"])
	}
	sum := number(t, y, "benzene") + number(t, y, "toluene")
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("vapor composition sums to %v", sum)
	}
}

func TestIntegration_Flash(t *testing.T) {
	session, cleanup := setupIntegration(t, "flash-calculations-mcp")
	defer cleanup()

	out := callTool(t, session, "calc_flash_isothermal_ideal_vapor_ideal_liquid", map[string]any{
		"components": []any{
			map[string]any{"name": "water", "formula": "H2O", "state": "l", "mole_fraction": 0.5},
			map[string]any{"name": "ethanol", "formula": "C2H5OH", "state": "l", "mole_fraction": 0.5},
		},
		"temperature": map[string]any{"value": 30, "unit": "C"},
		"pressure":    map[string]any{"value": 7, "unit": "kPa"},
	})

	vf := number(t, out, "V_F_ratio")
	lf := number(t, out, "L_F_ratio")
	if vf < 0 || vf > 1 {
		t.Fatalf("V/F = %v outside [0,1]", vf)
	}
	feed := out["feed_mole_fraction"].(map[string]any)
	liquid := out["liquid_mole_fraction"].(map[string]any)
	vapor := out["vapor_mole_fraction"].(map[string]any)
	for _, name := range []string{"water", "ethanol"} {
		balance := vf*number(t, vapor, name) + lf*number(t, liquid, name)
		if math.Abs(balance-number(t, feed, name)) > 1e-6 {
			t.Errorf("%s: mass balance %v vs feed %v", name, balance, feed[name])
		}
	}
}

func TestIntegration_InvalidCatalogName(t *testing.T) {
	_, err := catalog.New("does-not-exist", zerolog.Nop())
	if err == nil {
		t.Fatal("expected error")
	}
	if errs.KindOf(err) != errs.KindInvalidCatalogName {
		t.Errorf("kind = %s, want InvalidCatalogName", errs.KindOf(err))
	}
	for _, name := range registry.Names() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not list %s", err, name)
		}
	}
}

func TestIntegration_CustomReferenceIsScoped(t *testing.T) {
	session, cleanup := setupIntegration(t, "eos-models-mcp")
	defer cleanup()

	args := co2Args()
	args["custom_reference_content"] = co2Content
	args["custom_reference_config"] = "None"
	custom := callTool(t, session, "calc_gas_component_fugacity", args)
	if phi := number(t, custom, "fugacity_coefficient"); math.Abs(phi-0.94633) > 1e-4 {
		t.Errorf("custom fugacity_coefficient = %v, want ~0.94633", phi)
	}

	bundled := callTool(t, session, "calc_gas_component_fugacity", co2Args())
	if phi := number(t, bundled, "fugacity_coefficient"); math.Abs(phi-0.95219) > 1e-4 {
		t.Errorf("bundled fugacity_coefficient = %v, want ~0.95219", phi)
	}
}

func TestIntegration_ToolBindingError(t *testing.T) {
	descriptors, err := registry.Descriptor("flash-calculations-mcp")
	if err != nil {
		t.Fatal(err)
	}
	descriptors = append(descriptors, registry.ToolDescriptor{Name: "calc_azeotrope_nrtl"})

	_, err = catalog.New("flash-calculations-mcp", zerolog.Nop(), catalog.WithDescriptors(descriptors))
	if errs.KindOf(err) != errs.KindToolBindingError {
		t.Fatalf("err = %v, want ToolBindingError", err)
	}
}

func TestIntegration_ErrorEnvelope(t *testing.T) {
	session, cleanup := setupIntegration(t, "flash-calculations-mcp")
	defer cleanup()

	failure := callToolExpectError(t, session, "calc_bubble_pressure_ideal_vapor_ideal_liquid", map[string]any{
		"components": []any{
			map[string]any{"name": "benzene", "formula": "C6H6", "state": "l", "mole_fraction": 0.3},
			map[string]any{"name": "toluene", "formula": "C7H8", "state": "l", "mole_fraction": 0.3},
		},
		"temperature": map[string]any{"value": 80, "unit": "C"},
	})
	if failure.Kind != errs.KindInvalidArgument {
		t.Errorf("kind = %s, want InvalidArgument (%s)", failure.Kind, failure.Message)
	}

	failure = callToolExpectError(t, session, "calc_bubble_pressure_ideal_vapor_ideal_liquid", map[string]any{
		"components":  []any{},
		"temperature": map[string]any{"value": 80, "unit": "C"},
	})
	if failure.Kind != errs.KindInvalidArgument {
		t.Errorf("kind = %s, want InvalidArgument (%s)", failure.Kind, failure.Message)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestCLI_Catalogs(t *testing.T) {
	out, err := runCLI(t, "catalogs")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range registry.Names() {
		if !strings.Contains(out, name) {
			t.Errorf("catalogs output missing %s:\n%s", name, out)
		}
	}
}

func TestCLI_Tools(t *testing.T) {
	out, err := runCLI(t, "tools", "EOS-Models-MCP")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "calc_gas_component_fugacity") {
		t.Errorf("tools output missing calc_gas_component_fugacity:\n%s", out)
	}

	out, err = runCLI(t, "tools", "flash-calculations-mcp", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var descriptors []registry.ToolDescriptor
	if err := json.Unmarshal([]byte(out), &descriptors); err != nil {
		t.Fatalf("decode --json output: %v", err)
	}
	if len(descriptors) != 6 {
		t.Errorf("expected 6 descriptors, got %d", len(descriptors))
	}
}

func TestCLI_ServeInvalidCatalog(t *testing.T) {
	_, err := runCLI(t, "serve", "--catalog", "does-not-exist")
	if errs.KindOf(err) != errs.KindInvalidCatalogName {
		t.Fatalf("err = %v, want InvalidCatalogName", err)
	}
}

func TestCLI_InvalidConfig(t *testing.T) {
	_, err := runCLI(t, "serve", "--catalog", "eos-models-mcp", "--transport", "carrier-pigeon")
	if err == nil || !strings.Contains(err.Error(), "invalid transport") {
		t.Fatalf("err = %v, want invalid transport", err)
	}
}

func TestCLI_ReferenceFileMissing(t *testing.T) {
	missing := filepath.Join(os.TempDir(), "mozichem-missing-reference.txt")
	_, err := runCLI(t, "serve", "--catalog", "eos-models-mcp", "--reference-content", missing)
	if err == nil || !strings.Contains(err.Error(), "read reference content") {
		t.Fatalf("err = %v, want read reference content error", err)
	}
}
