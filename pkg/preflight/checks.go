// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/NVIDIA/skiff/pkg/version"
)

// Proc file locations, overridable in tests.
var (
	procModulesPath = "/proc/modules"
	procSwapsPath   = "/proc/swaps"
	procSysRoot     = "/proc/sys"
)

// minComposeVersion is the oldest compose plugin the deploy step is
// known to work with (compose v2 CLI syntax).
var minComposeVersion = version.New(2, 0, 0)

// systemdActiveState reads the ActiveState property of a unit over the
// system bus. Swapped in tests.
var systemdActiveState = func(ctx context.Context, unit string) (string, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	props, err := conn.GetAllPropertiesContext(ctx, unit)
	if err != nil {
		return "", fmt.Errorf("failed to get unit properties: %w", err)
	}

	state, _ := props["ActiveState"].(string)
	return state, nil
}

// composeVersionOutput runs the compose plugin version probe. Swapped in
// tests.
var composeVersionOutput = func(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "docker", "compose", "version", "--short").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// titleCaser renders check categories for display ("systemd" -> "Systemd").
var titleCaser = cases.Title(language.English)

// checkName builds the qualified check name, e.g. "Systemd.docker.service".
func checkName(category string, subject ...string) string {
	parts := append([]string{titleCaser.String(category)}, subject...)
	return strings.Join(parts, ".")
}

// check is one named host requirement probe.
type check struct {
	name  string
	probe func(ctx context.Context) CheckResult
}

func pass(name, detail string) CheckResult {
	return CheckResult{Name: name, Status: CheckStatusPass, Detail: detail}
}

func fail(name, detail string, err error) CheckResult {
	r := CheckResult{Name: name, Status: CheckStatusFail, Detail: detail}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func skip(name string, err error) CheckResult {
	r := CheckResult{Name: name, Status: CheckStatusSkip}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// systemdUnitCheck verifies the unit's ActiveState is "active". An
// unreachable system bus skips the check rather than failing it, so runs
// inside containers stay meaningful.
func systemdUnitCheck(unit string) check {
	name := checkName("systemd", unit)
	return check{
		name: name,
		probe: func(ctx context.Context) CheckResult {
			state, err := systemdActiveState(ctx, unit)
			if err != nil {
				return skip(name, err)
			}
			if state != "active" {
				return fail(name, state, fmt.Errorf("unit %s is %s, want active", unit, state))
			}
			return pass(name, state)
		},
	}
}

// kmodCheck verifies a kernel module is loaded per /proc/modules.
func kmodCheck(module string) check {
	name := checkName("kmod", module)
	return check{
		name: name,
		probe: func(ctx context.Context) CheckResult {
			if err := ctx.Err(); err != nil {
				return skip(name, err)
			}

			data, err := os.ReadFile(procModulesPath)
			if err != nil {
				return skip(name, fmt.Errorf("failed to read %s: %w", procModulesPath, err))
			}

			for _, line := range strings.Split(string(data), "\n") {
				fields := strings.Fields(line)
				if len(fields) > 0 && fields[0] == module {
					return pass(name, "loaded")
				}
			}
			return fail(name, "not loaded", fmt.Errorf("module %s not in %s", module, procModulesPath))
		},
	}
}

// sysctlCheck verifies a /proc/sys value. The key uses dotted notation
// ("net.ipv4.ip_forward").
func sysctlCheck(key, want string) check {
	name := checkName("sysctl", key)
	return check{
		name: name,
		probe: func(ctx context.Context) CheckResult {
			if err := ctx.Err(); err != nil {
				return skip(name, err)
			}

			path := filepath.Join(procSysRoot, strings.ReplaceAll(key, ".", "/"))
			data, err := os.ReadFile(path)
			if err != nil {
				return fail(name, "", fmt.Errorf("failed to read %s: %w", path, err))
			}

			got := strings.TrimSpace(string(data))
			if got != want {
				return fail(name, got, fmt.Errorf("%s is %s, want %s", key, got, want))
			}
			return pass(name, got)
		},
	}
}

// swapCheck verifies swap is disabled: /proc/swaps holds only its header.
func swapCheck() check {
	name := checkName("swap")
	return check{
		name: name,
		probe: func(ctx context.Context) CheckResult {
			if err := ctx.Err(); err != nil {
				return skip(name, err)
			}

			data, err := os.ReadFile(procSwapsPath)
			if err != nil {
				return skip(name, fmt.Errorf("failed to read %s: %w", procSwapsPath, err))
			}

			lines := 0
			var devices []string
			for _, line := range strings.Split(string(data), "\n") {
				if strings.TrimSpace(line) == "" {
					continue
				}
				lines++
				if lines > 1 {
					devices = append(devices, strings.Fields(line)[0])
				}
			}
			if len(devices) > 0 {
				return fail(name, strings.Join(devices, ", "),
					fmt.Errorf("swap is enabled on %d device(s)", len(devices)))
			}
			return pass(name, "disabled")
		},
	}
}

// composeCheck verifies the docker compose plugin is installed and at
// least minComposeVersion.
func composeCheck() check {
	name := checkName("compose", "version")
	return check{
		name: name,
		probe: func(ctx context.Context) CheckResult {
			out, err := composeVersionOutput(ctx)
			if err != nil {
				return fail(name, "", fmt.Errorf("docker compose version failed: %w", err))
			}

			v, err := version.Parse(out)
			if err != nil {
				return fail(name, out, fmt.Errorf("unparseable compose version %q: %w", out, err))
			}
			if !v.AtLeast(minComposeVersion) {
				return fail(name, out, fmt.Errorf("compose %s is older than %s", v, minComposeVersion))
			}
			return pass(name, out)
		},
	}
}
